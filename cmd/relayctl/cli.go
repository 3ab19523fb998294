package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dmitrijs2005/docrelay/internal/cryptox"
	"github.com/dmitrijs2005/docrelay/internal/server/models"
	"github.com/dmitrijs2005/docrelay/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/docrelay/internal/server/services"
)

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

var newRepoManager = repomanager.NewPostgresRepositoryManager

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	app := &cli.App{
		Name:  "relayctl",
		Usage: "Operate the document relay",
		Commands: []*cli.Command{
			migrateCmd(),
			signCmd(),
			keyCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// migrateCmd applies the embedded schema migrations.
func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply database migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dsn", Aliases: []string{"d"}, EnvVars: []string{"DATABASE_DSN"}, Required: true, Usage: "PostgreSQL DSN"},
			&cli.DurationFlag{Name: "timeout", Value: time.Minute, Usage: "Give up after this long"},
		},
		Action: func(c *cli.Context) error {
			db, err := openDB(c.String("dsn"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("open database: %v", err), 1)
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
			defer cancel()

			if err := newRepoManager().RunMigrations(ctx, db); err != nil {
				return cli.Exit(fmt.Sprintf("migrate: %v", err), 1)
			}
			_, err = fmt.Fprintln(c.App.Writer, "migrations applied")
			return err
		},
	}
}

type signOutput struct {
	Canonical string `json:"canonical"`
	Signature string `json:"signature"`
	Algorithm string `json:"algorithm"`
}

// signCmd prints the string-to-sign and signature for an upload, for
// checking a credential the media store rejected.
func signCmd() *cli.Command {
	return &cli.Command{
		Name:  "sign",
		Usage: "Compute an upload signature",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "public-id", Aliases: []string{"p"}, Required: true, Usage: "Storage key"},
			&cli.Int64Flag{Name: "timestamp", Aliases: []string{"t"}, Usage: "Unix seconds (defaults to now)"},
			&cli.StringFlag{Name: "folder", Value: "pdf-uploads", EnvVars: []string{"UPLOAD_FOLDER"}},
			&cli.StringFlag{Name: "preset", Value: "unifimed-pdf-upload-signed", EnvVars: []string{"CLOUDINARY_UPLOAD_PRESET"}},
			&cli.StringFlag{Name: "secret", EnvVars: []string{"CLOUDINARY_API_SECRET"}, Usage: "API secret"},
			&cli.StringFlag{Name: "algorithm", Value: "sha1", EnvVars: []string{"SIGNATURE_ALGORITHM"}},
		},
		Action: func(c *cli.Context) error {
			alg, err := cryptox.ParseAlgorithm(c.String("algorithm"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			signer, err := cryptox.NewSigner(c.String("secret"), alg)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			ts := c.Int64("timestamp")
			if ts == 0 {
				ts = time.Now().Unix()
			}
			params := cryptox.ParamSet{
				"folder":        c.String("folder"),
				"public_id":     c.String("public-id"),
				"timestamp":     ts,
				"upload_preset": c.String("preset"),
			}

			return outputJSON(c.App.Writer, signOutput{
				Canonical: params.Canonical(),
				Signature: signer.Sign(params),
				Algorithm: string(alg),
			})
		},
	}
}

// keyCmd previews the storage key a request would receive.
func keyCmd() *cli.Command {
	return &cli.Command{
		Name:  "key",
		Usage: "Derive a storage key",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Required: true},
			&cli.StringFlag{Name: "filename", Aliases: []string{"f"}, Required: true},
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true},
			&cli.Int64Flag{Name: "timestamp", Aliases: []string{"t"}, Usage: "Unix seconds (defaults to now)"},
		},
		Action: func(c *cli.Context) error {
			category := models.Category(c.String("category"))
			if !category.Valid() {
				return cli.Exit(fmt.Sprintf("unknown category %q", category), 1)
			}
			at := time.Now()
			if ts := c.Int64("timestamp"); ts != 0 {
				at = time.Unix(ts, 0)
			}
			_, err := fmt.Fprintln(c.App.Writer, services.DeriveStorageKey(category, c.String("filename"), c.String("email"), at))
			return err
		},
	}
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
