package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"go-bookshop/cart"
	"go-bookshop/catalog"
	"go-bookshop/models"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-carts",
		Short: "Delete abandoned carts once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, backend, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer closeBackend(backend)

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			j := &cart.Janitor{Carts: backend.Carts, Retention: cfg.CartRetention}
			n, err := j.RunOnce(ctx)
			if err != nil {
				return fmt.Errorf("sweep carts: %w", err)
			}
			slog.Info("Swept abandoned carts", "deleted", n)
			return nil
		},
	}
}

// seedBook is the YAML shape of a catalog entry. Prices are strings so
// amounts like 12.50 survive without float rounding.
type seedBook struct {
	models.Book `yaml:",inline"`
	Price       string `yaml:"price"`
}

type seedFile struct {
	Books []seedBook `yaml:"books"`
}

// loadSeed reads a catalog seed file
func loadSeed(path string) ([]models.Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	books := make([]models.Book, 0, len(f.Books))
	for i, sb := range f.Books {
		price, err := models.ParseMoney(sb.Price)
		if err != nil {
			return nil, fmt.Errorf("book %d (%s): %w", i+1, sb.Name, err)
		}
		b := sb.Book
		b.Price = price
		if err := catalog.Validate(b); err != nil {
			return nil, fmt.Errorf("book %d (%s): %w", i+1, sb.Name, err)
		}
		books = append(books, b)
	}
	return books, nil
}

func newSeedCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-catalog <file.yaml>",
		Short: "Load books from a YAML file into the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := loadSeed(args[0])
			if err != nil {
				return err
			}
			_, backend, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer closeBackend(backend)

			svc := catalog.NewService(backend.Books)
			for _, b := range books {
				ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
				created, err := svc.Create(ctx, b)
				cancel()
				if err != nil {
					return fmt.Errorf("create %q: %w", b.Name, err)
				}
				slog.Info("Book created", "id", created.ID.Hex(), "name", created.Name)
			}
			slog.Info("Catalog seeded", "books", len(books))
			return nil
		},
	}
}

func newCreateAdminCmd() *cobra.Command {
	var name, email, password, role string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create or reset a back-office account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.TrimSpace(strings.ToLower(email))
			if email == "" || len(password) < 8 {
				return errors.New("--email and a --password of at least 8 characters are required")
			}
			if role != "admin" && role != "staff" {
				return fmt.Errorf("invalid role %q", role)
			}
			_, backend, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer closeBackend(backend)

			// Hash the password
			hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			user, err := backend.Users.Save(ctx, models.User{
				Name:     name,
				Email:    email,
				Password: string(hashed),
				Role:     role,
			})
			if err != nil {
				return fmt.Errorf("save user: %w", err)
			}
			slog.Info("User saved", "email", user.Email, "role", user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password")
	cmd.Flags().StringVar(&role, "role", "admin", "admin or staff")
	return cmd
}
