package main

import (
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"daybook/internal/database"
	"daybook/internal/domain/auth"
	"daybook/internal/domain/entry"
	"daybook/internal/domain/media"
)

// Seeds a local database with one demo account per tier plus a few
// timeline entries. Development convenience only.
func main() {
	db, err := database.Connect("daybook.db")
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := db.AutoMigrate(
		&auth.User{},
		&entry.Entry{},
		&media.Attachment{},
		&media.ReconciliationEntry{},
	); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM reconciliation_log")
	db.Exec("DELETE FROM attachments")
	db.Exec("DELETE FROM entries")
	db.Exec("DELETE FROM users")

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal(err)
	}

	users := []auth.User{
		{Email: "free@daybook.dev", PasswordHash: string(hash), Name: "Free Fiona", Tier: auth.TierFree},
		{Email: "personal@daybook.dev", PasswordHash: string(hash), Name: "Personal Pat", Tier: auth.TierPersonal},
		{Email: "pro@daybook.dev", PasswordHash: string(hash), Name: "Pro Priya", Tier: auth.TierPro},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			log.Fatal("seed user failed:", err)
		}
	}

	titles := []string{"First day", "Weekend hike", "Dinner with friends"}
	for i, title := range titles {
		e := entry.Entry{
			AccountID: users[1].ID,
			Date:      time.Now().AddDate(0, 0, -i),
			Title:     title,
			Body:      "Seeded entry.",
		}
		if err := db.Create(&e).Error; err != nil {
			log.Fatal("seed entry failed:", err)
		}
	}

	log.Printf("seeded %d users and %d entries (password: password123)", len(users), len(titles))
}
