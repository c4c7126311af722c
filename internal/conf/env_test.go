package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEnvBase64URL(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateEnvBase64URL("BNcRdreALRFXTkOOUHK1EtK2wtaz5Ry4YfYCA_0QTpQtUbVlUls0VJXg7A8u-Ts1XbjhazAkj7I99e8QcYP7DkM"))
	assert.NoError(t, validateEnvBase64URL("dGVzdA")) // unpadded
	assert.NoError(t, validateEnvBase64URL("dGVzdA=="))
	assert.Error(t, validateEnvBase64URL("not base64!"))
}

func TestValidateEnvSubject(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateEnvSubject("mailto:ops@example.com"))
	assert.NoError(t, validateEnvSubject("https://gridlead.app/contact"))
	assert.Error(t, validateEnvSubject("mailto:"))
	assert.Error(t, validateEnvSubject("http://gridlead.app"))
	assert.Error(t, validateEnvSubject("ops@example.com"))
}

func TestValidateEnvPort(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateEnvPort("8090"))
	assert.Error(t, validateEnvPort("0"))
	assert.Error(t, validateEnvPort("65536"))
	assert.Error(t, validateEnvPort("abc"))
}

func TestValidateEnvStoreBackend(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"rest", "sqlite", "none", "REST"} {
		assert.NoError(t, validateEnvStoreBackend(v), v)
	}
	assert.Error(t, validateEnvStoreBackend("postgres"))
}

func TestValidateEnvURL(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateEnvURL("https://db.example.com/rest/v1"))
	assert.Error(t, validateEnvURL("ftp://db.example.com"))
	assert.Error(t, validateEnvURL("https://"))
}
