package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorBuilder_Basic(t *testing.T) {
	t.Parallel()

	base := fmt.Errorf("endpoint missing")
	err := New(base).
		Component("webpush").
		Category(CategoryValidation).
		Context("endpoint", "").
		Build()

	require.Error(t, err)
	assert.Equal(t, "endpoint missing", err.Error())

	var ee *EnhancedError
	require.True(t, As(err, &ee))
	assert.Equal(t, "webpush", ee.GetComponent())
	assert.Equal(t, CategoryValidation, ee.Category)
	assert.Equal(t, "", ee.GetContext()["endpoint"])
	assert.False(t, ee.GetTimestamp().IsZero())
}

func TestErrorBuilder_NilError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, New(nil).Category(CategoryNetwork).Build())
}

func TestErrorBuilder_PreservesCategoryOnRewrap(t *testing.T) {
	t.Parallel()

	inner := Newf("bad DER sequence").Category(CategorySignatureFormat).Build()
	outer := New(fmt.Errorf("signing failed: %w", inner)).Build()

	assert.Equal(t, CategorySignatureFormat, CategoryOf(outer))
	assert.True(t, HasCategory(outer, CategorySignatureFormat))
}

func TestCategoryOf_PlainError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CategoryGeneric, CategoryOf(fmt.Errorf("plain")))
}

func TestEnhancedError_IsMatchesCategory(t *testing.T) {
	t.Parallel()

	a := Newf("a").Category(CategoryTimeout).Build()
	b := Newf("b").Category(CategoryTimeout).Build()
	c := Newf("c").Category(CategoryNetwork).Build()

	assert.True(t, Is(a, b))
	assert.False(t, Is(a, c))
}

func TestUnwrap(t *testing.T) {
	t.Parallel()

	base := fmt.Errorf("cause")
	err := New(base).Build()
	assert.Equal(t, base, Unwrap(err))
}
