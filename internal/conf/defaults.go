// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "PushGate")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "pushgate.log")
	viper.SetDefault("main.log.maxsize", 100)
	viper.SetDefault("main.log.maxbackups", 3)
	viper.SetDefault("main.log.maxage", 28)

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.host", "0.0.0.0")
	viper.SetDefault("webserver.port", "8090")
	viper.SetDefault("webserver.log.enabled", true)
	viper.SetDefault("webserver.log.path", "logs/webserver.log")

	viper.SetDefault("vapid.subject", DefaultVAPIDSubject)
	viper.SetDefault("vapid.publickey", "")
	viper.SetDefault("vapid.privatekey", "")

	viper.SetDefault("push.ttlseconds", DefaultPushTTLSeconds)
	viper.SetDefault("push.sendtimeout", DefaultSendTimeout)
	viper.SetDefault("push.invalidatettl", 5*time.Minute)
	viper.SetDefault("push.ratelimit.enabled", true)
	viper.SetDefault("push.ratelimit.requestspersecond", 60.0)
	viper.SetDefault("push.ratelimit.burst", 10)
	viper.SetDefault("push.log.enabled", true)
	viper.SetDefault("push.log.path", "logs/webpush.log")
	viper.SetDefault("push.debug", false)

	viper.SetDefault("store.backend", "none")
	viper.SetDefault("store.rest.url", "")
	viper.SetDefault("store.rest.apikey", "")
	viper.SetDefault("store.rest.table", "push_subscriptions")
	viper.SetDefault("store.sqlite.path", "pushgate.db")
}
