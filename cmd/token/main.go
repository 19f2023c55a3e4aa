// Command token prints a client token for local development, signed with the server secret.
package main

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/listen/internal/service/auth"
)

const (
	secretKey   = "secret"
	identityKey = "identity"
	ttlKey      = "ttl"
)

var errNoSecret = errors.New("secret is required")

func mintToken(secret, identity string, ttl time.Duration, clk clockwork.Clock) (string, error) {
	if secret == "" {
		return "", errNoSecret
	}

	if identity == "" {
		return "", errors.New("identity is required")
	}

	return auth.New(secret, clk).Issue(identity, ttl)
}

func main() {
	_ = godotenv.Load()

	pflag.String(secretKey, "", "HMAC key the server verifies tokens with")
	pflag.String(identityKey, "", "User identity placed in the sub claim")
	pflag.Duration(ttlKey, 24*time.Hour, "Token lifetime, 0 for no expiry")
	pflag.Parse()

	viper.BindEnv(secretKey, "SERVER_SECRET")
	viper.BindPFlags(pflag.CommandLine)

	token, err := mintToken(
		viper.GetString(secretKey),
		viper.GetString(identityKey),
		viper.GetDuration(ttlKey),
		clockwork.NewRealClock(),
	)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(token)
}
