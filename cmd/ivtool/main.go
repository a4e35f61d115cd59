// ivtool decodes packet headers and replays captured traffic.
//
// Usage:
//
//	go run ./cmd/ivtool -header 2e0d2f0c -iv 46727a21
//	go run ./cmd/ivtool -iv 46727a21 -shuffle 5
//	go run ./cmd/ivtool -session 7c1f... -limit 50
//
// -shuffle and -session read cipher and database settings from the server
// config (MSGO_CONFIG or -config).
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/udisondev/msgo/internal/config"
	"github.com/udisondev/msgo/internal/crypto"
	"github.com/udisondev/msgo/internal/db"
)

func main() {
	cfgPath := flag.String("config", "config/gameserver.yaml", "server config (overridden by MSGO_CONFIG)")
	headerHex := flag.String("header", "", "4-byte packet header, hex")
	ivHex := flag.String("iv", "", "4-byte IV, hex")
	shuffle := flag.Int("shuffle", 0, "print the next N IVs after -iv")
	session := flag.String("session", "", "replay captured headers of a session")
	limit := flag.Int("limit", 100, "max captures to replay")
	flag.Parse()

	if p := os.Getenv("MSGO_CONFIG"); p != "" {
		*cfgPath = p
	}

	if err := run(context.Background(), os.Stdout, *cfgPath, *headerHex, *ivHex, *shuffle, *session, *limit); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, cfgPath, headerHex, ivHex string, shuffle int, session string, limit int) error {
	if session != "" {
		cfg, err := config.LoadGameServer(cfgPath)
		if err != nil {
			return err
		}
		return replay(ctx, w, cfg.Database.DSN(), session, limit)
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return fmt.Errorf("parsing -iv: %w", err)
	}

	if headerHex != "" {
		header, err := hex.DecodeString(headerHex)
		if err != nil {
			return fmt.Errorf("parsing -header: %w", err)
		}
		if err := describeHeader(w, header, iv); err != nil {
			return err
		}
	}

	if shuffle > 0 {
		cfg, err := config.LoadGameServer(cfgPath)
		if err != nil {
			return err
		}
		suite, err := cfg.Cipher.Suite()
		if err != nil {
			return err
		}
		alg, err := suite.Encryptor()
		if err != nil {
			return err
		}
		return printShuffles(w, alg, iv, shuffle)
	}
	return nil
}

// describeHeader печатает маску версии и длину тела.
func describeHeader(w io.Writer, header, iv []byte) error {
	version, err := crypto.GetVersion(header, iv)
	if err != nil {
		return err
	}
	length, err := crypto.GetPacketLength(header)
	if err != nil {
		return err
	}

	// маска хранится с переставленными байтами; для пакетов клиента это
	// версия, для пакетов сервера 0xFFFF - версия
	plain := crypto.SwapVersion(version)
	fmt.Fprintf(w, "header:  %x\n", header)
	fmt.Fprintf(w, "iv:      %x\n", iv)
	fmt.Fprintf(w, "mask:    0x%04x (client version %d, server version %d)\n", version, plain, 0xFFFF-plain)
	fmt.Fprintf(w, "length:  %d\n", length)
	return nil
}

func printShuffles(w io.Writer, alg crypto.Algorithm, iv []byte, n int) error {
	for i := 1; i <= n; i++ {
		next, err := alg.ShuffleIV(iv)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%3d  %x\n", i, next)
		iv = next
	}
	return nil
}

func replay(ctx context.Context, w io.Writer, dsn, session string, limit int) error {
	database, err := db.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	captures, err := db.NewCaptureStore(database.Pool(), false).ListBySession(ctx, session, limit)
	if err != nil {
		return err
	}

	for _, c := range captures {
		version, err := crypto.GetVersion(c.Header, c.IV)
		if err != nil {
			fmt.Fprintf(w, "%6d  %s  bad record: %v\n", c.ID, directionName(c.Direction), err)
			continue
		}
		length, _ := crypto.GetPacketLength(c.Header)
		fmt.Fprintf(w, "%6d  %s  %s  iv=%x header=%x mask=0x%04x len=%d\n",
			c.ID, c.CapturedAt.Format("15:04:05.000"), directionName(c.Direction), c.IV, c.Header, version, length)
	}
	fmt.Fprintf(w, "%d captures\n", len(captures))
	return nil
}

func directionName(d db.Direction) string {
	switch d {
	case db.Inbound:
		return "in "
	case db.Outbound:
		return "out"
	default:
		return "???"
	}
}
