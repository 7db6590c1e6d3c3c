package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voiceroom/internal/domain"
	"github.com/dkeye/voiceroom/internal/token"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cmd := kingpin.New("voicetoken", "Generate access keys and room tokens.")

	cmd.Command("keygen", "Generate a new access key.").
		Action(func(*kingpin.ParseContext) error {
			key, err := token.NewAccessKey()
			if err != nil {
				return err
			}
			fmt.Println(key.String())
			log.Info().Str("key_id", key.KeyID()).Msg("access key generated")
			return nil
		})

	var (
		accessKey string
		roomID    string
		userID    string
		customer  string
		ttl       time.Duration
	)
	sign := cmd.Command("token", "Sign a room token with an access key.").
		Action(func(*kingpin.ParseContext) error {
			key, err := token.ParseAccessKey(accessKey)
			if err != nil {
				return err
			}
			raw, err := key.Generate(domain.RoomID(roomID), domain.UserID(userID), token.Options{
				CustomerID: domain.CustomerID(customer),
				Lifetime:   ttl,
			})
			if err != nil {
				return err
			}
			fmt.Println(raw)
			return nil
		})
	sign.Flag("access-key", "Access key used to sign the token.").
		Envar("VOICE_ACCESS_KEY").
		Required().
		StringVar(&accessKey)
	sign.Flag("room", "Room id the token grants access to.").
		Required().
		StringVar(&roomID)
	sign.Flag("user", "User id of the token holder.").
		Required().
		StringVar(&userID)
	sign.Flag("customer", "Optional customer id.").
		StringVar(&customer)
	sign.Flag("ttl", "Token lifetime.").
		Default("5m").
		DurationVar(&ttl)

	var raw string
	inspect := cmd.Command("inspect", "Print the claims of a token without verifying it.").
		Action(func(*kingpin.ParseContext) error {
			tok, err := token.Parse(raw)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(tok.Claims(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		})
	inspect.Arg("token", "Token to inspect.").
		Required().
		StringVar(&raw)

	kingpin.MustParse(cmd.Parse(os.Args[1:]))
}
