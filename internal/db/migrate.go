package db

import (
	"collaborative-canvas/internal/board"
	"collaborative-canvas/internal/user"

	"github.com/rs/zerolog/log"
)

// Migrate runs database migrations
func Migrate() {
	err := AppDb.AutoMigrate(
		&user.User{},
		&board.Board{},
		&board.BoardCollaborator{},
		&board.Element{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	log.Info().Msg("Database schema migrated successfully")
}

// SeedData seeds the database with initial data (for development only)
func SeedData() {
	userRepo := user.NewRepository(AppDb)

	testUser := &user.User{
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "password123",
	}

	// Check if user exists
	if _, err := userRepo.FindByEmail(testUser.Email); err != nil {
		userService := user.NewService(userRepo)
		// User doesn't exist, create it
		if err := userService.Register(testUser); err != nil {
			log.Error().Err(err).Msg("Error creating test user")
		} else {
			log.Info().Str("email", testUser.Email).Msg("Created test user")
		}
	} else {
		log.Info().Str("email", testUser.Email).Msg("Test user already exists")
	}
}
