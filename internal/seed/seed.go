// Package seed fills a Warbler database with fake users, warbles and social
// edges for local development and demos.
package seed

import (
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"warbler/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password every seeded account logs in with.
const DefaultPassword = "password"

// Options configures a seeding run.
type Options struct {
	NumUsers       int
	NumMessages    int
	FollowsPerUser int
	LikesPerUser   int
	// MaxDays spreads message timestamps over this many days back from now.
	MaxDays int
	// Seed makes the generated data reproducible. Zero picks a time-based seed.
	Seed int64
	// HashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
	HashCost int
}

// Result summarizes what a run created.
type Result struct {
	Users    []models.User
	Messages int
	Follows  int
	Likes    int
}

// Seeder writes generated rows through gorm.
type Seeder struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 30
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	return &Seeder{db: db, opts: opts, faker: gofakeit.New(opts.Seed)}
}

// ClearAll removes every row the application owns, children first.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	tx := s.db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []interface{}{&models.Like{}, &models.Follow{}, &models.Message{}, &models.User{}} {
		if err := tx.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// Run seeds users, then messages, then follow and like edges.
func (s *Seeder) Run() (*Result, error) {
	users, err := s.SeedUsers(s.opts.NumUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d users created", len(users))

	messages, err := s.SeedMessages(users, s.opts.NumMessages)
	if err != nil {
		return nil, fmt.Errorf("failed to create messages: %w", err)
	}
	log.Printf("✓ %d messages created", len(messages))

	follows, err := s.SeedFollows(users, s.opts.FollowsPerUser)
	if err != nil {
		return nil, fmt.Errorf("failed to create follows: %w", err)
	}
	log.Printf("✓ %d follows created", follows)

	likes, err := s.SeedLikes(users, messages, s.opts.LikesPerUser)
	if err != nil {
		return nil, fmt.Errorf("failed to create likes: %w", err)
	}
	log.Printf("✓ %d likes created", likes)

	return &Result{Users: users, Messages: len(messages), Follows: follows, Likes: likes}, nil
}

// SeedUsers creates count users sharing DefaultPassword.
func (s *Seeder) SeedUsers(count int) ([]models.User, error) {
	if count <= 0 {
		return nil, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), s.opts.HashCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		username := fmt.Sprintf("%s%d", strings.ToLower(s.faker.Username()), i)
		user := models.User{
			Username: username,
			Email:    username + "@example.com",
			Password: string(hashed),
			Bio:      clip(s.faker.HipsterSentence(8), 200),
			Location: s.faker.City(),
		}
		user.ApplyImageDefaults()
		users = append(users, user)
	}

	if err := s.db.CreateInBatches(&users, 100).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// SeedMessages creates count messages spread randomly across users.
func (s *Seeder) SeedMessages(users []models.User, count int) ([]models.Message, error) {
	if len(users) == 0 || count <= 0 {
		return nil, nil
	}

	now := time.Now()
	windowMinutes := s.opts.MaxDays * 24 * 60
	messages := make([]models.Message, 0, count)
	for i := 0; i < count; i++ {
		author := users[s.faker.Number(0, len(users)-1)]
		age := time.Duration(s.faker.Number(0, windowMinutes)) * time.Minute
		messages = append(messages, models.Message{
			UserID:    author.ID,
			Text:      clip(s.faker.HackerPhrase(), models.MaxMessageLength),
			Timestamp: now.Add(-age),
		})
	}

	if err := s.db.CreateInBatches(&messages, 100).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// SeedFollows gives every user up to perUser follow edges to other users.
// Duplicate picks collapse onto the existing edge.
func (s *Seeder) SeedFollows(users []models.User, perUser int) (int, error) {
	if len(users) < 2 || perUser <= 0 {
		return 0, nil
	}

	seen := make(map[[2]uint]bool)
	var edges []models.Follow
	for _, follower := range users {
		for j := 0; j < perUser; j++ {
			target := users[s.faker.Number(0, len(users)-1)]
			key := [2]uint{target.ID, follower.ID}
			if target.ID == follower.ID || seen[key] {
				continue
			}
			seen[key] = true
			edges = append(edges, models.Follow{UserBeingFollowedID: target.ID, UserFollowingID: follower.ID})
		}
	}
	if len(edges) == 0 {
		return 0, nil
	}

	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&edges, 200).Error; err != nil {
		return 0, err
	}
	return len(edges), nil
}

// SeedLikes gives every user up to perUser likes on random messages.
func (s *Seeder) SeedLikes(users []models.User, messages []models.Message, perUser int) (int, error) {
	if len(users) == 0 || len(messages) == 0 || perUser <= 0 {
		return 0, nil
	}

	seen := make(map[[2]uint]bool)
	var likes []models.Like
	for _, user := range users {
		for j := 0; j < perUser; j++ {
			msg := messages[s.faker.Number(0, len(messages)-1)]
			key := [2]uint{user.ID, msg.ID}
			if seen[key] {
				continue
			}
			seen[key] = true
			likes = append(likes, models.Like{UserID: user.ID, MessageID: msg.ID})
		}
	}

	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&likes, 200).Error; err != nil {
		return 0, err
	}
	return len(likes), nil
}

// clip shortens s to at most max runes.
func clip(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
