package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/mail"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/stemsi/quizdesk-backend/internal/config"
	"github.com/stemsi/quizdesk-backend/internal/database"
	"github.com/stemsi/quizdesk-backend/internal/logger"
	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stemsi/quizdesk-backend/internal/repository"
	"github.com/stemsi/quizdesk-backend/internal/service"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

const minPasswordLength = 6

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// ─── CLI Input ─────────────────────────────────────────────────────
	fmt.Println("=== Create New Admin User ===")

	input, err := readInput(bufio.NewReader(os.Stdin))
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	adminService := service.NewAdminService(repository.NewAdminRepository(pool))

	if _, err := adminService.GetByEmail(ctx, input.email); err == nil {
		fmt.Printf("Error: an admin with email %s already exists\n", input.email)
		os.Exit(1)
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.password), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	newAdmin := &model.Admin{
		Email:        input.email,
		Name:         input.name,
		PasswordHash: string(hashedPassword),
	}
	if err := adminService.Create(ctx, newAdmin); err != nil {
		log.Fatal().Err(err).Msg("Failed to create admin")
	}

	fmt.Printf("\nSuccess! Admin '%s' (%s) created with ID: %d\n", newAdmin.Name, newAdmin.Email, newAdmin.ID)
}

type adminInput struct {
	name     string
	email    string
	password string
}

func readInput(reader *bufio.Reader) (*adminInput, error) {
	var in adminInput

	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	if in.name = strings.TrimSpace(name); in.name == "" {
		return nil, errors.New("name is required")
	}

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("invalid email: %w", err)
	}
	in.email = strings.ToLower(addr.Address)

	fmt.Print("Enter Password: ")
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return nil, errors.New("could not read password")
	}
	if len(first) < minPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	fmt.Print("Confirm Password: ")
	second, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return nil, errors.New("could not read password")
	}
	if string(first) != string(second) {
		return nil, errors.New("passwords do not match")
	}
	in.password = string(first)

	return &in, nil
}
