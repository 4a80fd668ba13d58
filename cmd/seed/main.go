package main

import (
	"fmt"

	"warble/pkg/config"
	"warble/pkg/database"
	"warble/pkg/jwt"
	"warble/pkg/logger"
	"warble/pkg/models"

	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New()
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	jwtService := jwt.NewService(cfg.JWTSecret)

	if err := seedDatabase(db, jwtService, log); err != nil {
		log.Error("Failed to seed database: %v", err)
		panic(err)
	}

	log.Info("Database seeded successfully!")
}

func seedDatabase(db *gorm.DB, jwtService *jwt.Service, log *logger.Logger) error {
	testUsers := []string{"alice_w", "bob_w", "charlie_w", "diana_w", "eve_w"}

	for _, username := range testUsers {
		var user models.User
		err := db.Where("username = ?", username).First(&user).Error
		if err == gorm.ErrRecordNotFound {
			user = models.User{Username: username}
			if err := db.Create(&user).Error; err != nil {
				return fmt.Errorf("failed to create user %s: %w", username, err)
			}
			log.Info("Created user %s (%s)", username, user.ID)
		} else if err != nil {
			return err
		} else {
			log.Info("User %s already exists (%s)", username, user.ID)
		}

		token, err := jwtService.GenerateToken(user.ID, user.Username)
		if err != nil {
			return fmt.Errorf("failed to generate token for %s: %w", username, err)
		}
		fmt.Printf("%s: Bearer %s\n", username, token)

		seedPosts(db, &user, log)
	}

	return nil
}

func seedPosts(db *gorm.DB, user *models.User, log *logger.Logger) {
	texts := []string{
		"Just set up my account!",
		"Trying out the photo upload next.",
	}

	for _, text := range texts {
		var count int64
		db.Model(&models.Post{}).Where("author_id = ? AND text = ?", user.ID, text).Count(&count)
		if count > 0 {
			continue
		}

		post := models.Post{
			AuthorID:   user.ID,
			AuthorName: user.Username,
			Text:       text,
		}
		if err := db.Create(&post).Error; err != nil {
			log.Warn("Failed to seed post for %s: %v", user.Username, err)
			continue
		}
		log.Info("Seeded post %s for %s", post.ID, user.Username)
	}
}
