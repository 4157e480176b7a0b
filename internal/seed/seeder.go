package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/chirpsocial/backend/internal/logger"
	"github.com/chirpsocial/backend/internal/models"
	"github.com/chirpsocial/backend/internal/notifications"
	"github.com/chirpsocial/backend/internal/repository"
)

// Seeder handles database seeding operations
type Seeder struct {
	db    *gorm.DB
	users repository.UserRepository
	posts repository.PostRepository
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:    db,
		users: repository.NewUserRepository(db),
		posts: repository.NewPostRepository(db),
	}
}

// sample hashtag vocabulary so seeded posts overlap on tags
var hashtagPool = []string{
	"golang", "music", "coffee", "travel", "food", "books",
	"photography", "fitness", "movies", "gaming", "art", "news",
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev() error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating users...")
	users, err := s.seedUsers(50)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	log("Creating follows...")
	if err := s.seedFollows(users, 200); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	log("Creating posts...")
	posts, err := s.seedPosts(users, 300)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	log("Creating comments...")
	if err := s.seedComments(users, posts, 500); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	log("Creating likes...")
	if err := s.seedLikes(users, posts, 800); err != nil {
		return fmt.Errorf("failed to seed likes: %w", err)
	}

	log("Creating polls...")
	if err := s.seedPolls(users, posts, 15); err != nil {
		return fmt.Errorf("failed to seed polls: %w", err)
	}

	log("Creating notifications...")
	if err := s.seedNotifications(users, 300); err != nil {
		return fmt.Errorf("failed to seed notifications: %w", err)
	}

	return nil
}

// SeedTest seeds the test database with two known accounts and a little data
func (s *Seeder) SeedTest() error {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	passwordHash := string(hash)

	testUsers := []*models.User{
		{
			ID:           uuid.New().String(),
			Email:        "alice@test.chirp.social",
			Username:     "alice",
			DisplayName:  "Alice Test",
			PasswordHash: &passwordHash,
		},
		{
			ID:           uuid.New().String(),
			Email:        "bob@test.chirp.social",
			Username:     "bob",
			DisplayName:  "Bob Test",
			PasswordHash: &passwordHash,
		},
	}

	ctx := context.Background()
	for _, u := range testUsers {
		if err := s.users.CreateUser(ctx, u); err != nil {
			return err
		}
	}

	if err := s.users.CreateFollow(ctx, testUsers[1].ID, testUsers[0].ID); err != nil {
		return err
	}

	post := &models.Post{
		AuthorID: testUsers[0].ID,
		Content:  "hello from the test fixtures #testing",
		Hashtags: models.StringArray{"testing"},
	}
	return s.posts.CreatePost(ctx, post)
}

// Clean removes all seeded data. Truncates every table, so only for
// development databases.
func (s *Seeder) Clean() error {
	tables := []string{
		"notifications", "push_subscriptions", "poll_votes", "poll_options",
		"polls", "post_likes", "comments", "posts", "follows", "users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	ctx := context.Background()
	users := make([]models.User, 0, count)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	passwordHash := string(hash)

	seen := map[string]bool{}
	for i := 0; i < count; i++ {
		username := strings.ToLower(gofakeit.Username())
		email := gofakeit.Email()
		for seen[username] {
			username = strings.ToLower(gofakeit.Username())
			email = gofakeit.Email()
		}
		seen[username] = true

		lastActive := gofakeit.DateRange(time.Now().AddDate(0, 0, -30), time.Now())
		user := models.User{
			ID:           uuid.New().String(),
			Email:        email,
			Username:     username,
			DisplayName:  gofakeit.Name(),
			Bio:          gofakeit.HipsterSentence(),
			Location:     fmt.Sprintf("%s, %s", gofakeit.City(), gofakeit.Country()),
			PasswordHash: &passwordHash,
			LastActiveAt: &lastActive,
		}
		if err := s.users.CreateUser(ctx, &user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, nil
}

func (s *Seeder) seedFollows(users []models.User, count int) error {
	ctx := context.Background()

	created := 0
	for attempts := 0; created < count && attempts < count*3; attempts++ {
		follower := users[rand.Intn(len(users))]
		following := users[rand.Intn(len(users))]
		if follower.ID == following.ID {
			continue
		}

		err := s.users.CreateFollow(ctx, follower.ID, following.ID)
		if err == repository.ErrAlreadyFollowing {
			continue
		}
		if err != nil {
			return err
		}
		created++
	}
	return nil
}

func (s *Seeder) seedPosts(users []models.User, count int) ([]models.Post, error) {
	ctx := context.Background()
	posts := make([]models.Post, 0, count)

	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]

		content := gofakeit.HipsterSentence()
		var hashtags models.StringArray
		for _, tag := range pickHashtags() {
			content += " #" + tag
			hashtags = append(hashtags, tag)
		}

		post := models.Post{
			AuthorID:  author.ID,
			Content:   content,
			Hashtags:  hashtags,
			CreatedAt: gofakeit.DateRange(time.Now().AddDate(0, 0, -30), time.Now()),
		}
		if err := s.posts.CreatePost(ctx, &post); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	return posts, nil
}

func pickHashtags() []string {
	n := rand.Intn(3) // 0 to 2 tags per post
	tags := make([]string, 0, n)
	for len(tags) < n {
		tag := hashtagPool[rand.Intn(len(hashtagPool))]
		duplicate := false
		for _, t := range tags {
			if t == tag {
				duplicate = true
			}
		}
		if !duplicate {
			tags = append(tags, tag)
		}
	}
	return tags
}

func (s *Seeder) seedComments(users []models.User, posts []models.Post, count int) error {
	ctx := context.Background()

	for i := 0; i < count; i++ {
		comment := models.Comment{
			PostID:    posts[rand.Intn(len(posts))].ID,
			AuthorID:  users[rand.Intn(len(users))].ID,
			Content:   gofakeit.HipsterSentence(),
			CreatedAt: gofakeit.DateRange(time.Now().AddDate(0, 0, -30), time.Now()),
		}
		if err := s.posts.CreateComment(ctx, &comment); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedLikes(users []models.User, posts []models.Post, count int) error {
	ctx := context.Background()

	created := 0
	for attempts := 0; created < count && attempts < count*3; attempts++ {
		err := s.posts.CreateLike(ctx,
			posts[rand.Intn(len(posts))].ID,
			users[rand.Intn(len(users))].ID)
		if err == repository.ErrAlreadyLiked {
			continue
		}
		if err != nil {
			return err
		}
		created++
	}
	return nil
}

func (s *Seeder) seedPolls(users []models.User, posts []models.Post, count int) error {
	ctx := context.Background()

	for i := 0; i < count && i < len(posts); i++ {
		post := posts[i]
		poll := models.Poll{
			PostID:   post.ID,
			Question: gofakeit.Question(),
			Options: []models.PollOption{
				{Text: gofakeit.Word()},
				{Text: gofakeit.Word()},
				{Text: gofakeit.Word()},
			},
		}
		if err := s.posts.CreatePoll(ctx, &poll); err != nil {
			return err
		}

		// A few random votes per poll
		for v := 0; v < rand.Intn(8); v++ {
			option := poll.Options[rand.Intn(len(poll.Options))]
			err := s.posts.CreatePollVote(ctx, poll.ID, option.ID, users[rand.Intn(len(users))].ID)
			if err != nil && err != repository.ErrAlreadyVoted {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) seedNotifications(users []models.User, count int) error {
	ctx := context.Background()
	store := notifications.NewStore(s.db)

	types := []string{
		models.NotificationTypeFollow,
		models.NotificationTypeLike,
		models.NotificationTypeComment,
		models.NotificationTypeMention,
	}

	for i := 0; i < count; i++ {
		recipient := users[rand.Intn(len(users))]
		actor := users[rand.Intn(len(users))]

		notification := models.Notification{
			UserID:  recipient.ID,
			Type:    types[rand.Intn(len(types))],
			Message: fmt.Sprintf("@%s %s", actor.Username, gofakeit.VerbAction()),
			Meta:    models.Metadata{"actor_id": actor.ID},
			IsRead:  rand.Intn(3) == 0,
		}
		if err := store.Create(ctx, &notification); err != nil {
			return err
		}
	}
	return nil
}
