// Package seed fills a store with demo campus data for development. All
// writes go through the mutation services so seeded data obeys the same
// rules as user input.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bitsconnect/internal/app"
	"bitsconnect/internal/models"
	"bitsconnect/internal/observability"
	"bitsconnect/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	NumComments int
	NumMessages int
	// RandomSeed makes a run reproducible. Zero picks a random seed.
	RandomSeed int64
	Password   string
}

// DefaultOptions is a small but lively campus.
func DefaultOptions() Options {
	return Options{NumUsers: 12, NumPosts: 30, NumComments: 60, NumMessages: 40, Password: DefaultPassword}
}

// Summary counts what a run created.
type Summary struct {
	Users    int
	Posts    int
	Comments int
	Votes    int
	Messages int
}

// Seeder creates demo users, posts, comments, votes and messages.
type Seeder struct {
	svc     app.Services
	opts    Options
	faker   *gofakeit.Faker
	catalog *models.Catalog
}

var domains = map[models.Campus]string{
	models.CampusPilani:    "pilani.bits-pilani.ac.in",
	models.CampusGoa:       "goa.bits-pilani.ac.in",
	models.CampusHyderabad: "hyderabad.bits-pilani.ac.in",
}

// NewSeeder creates a Seeder writing through svc.
func NewSeeder(svc app.Services, opts Options) *Seeder {
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	return &Seeder{
		svc:     svc,
		opts:    opts,
		faker:   gofakeit.New(opts.RandomSeed),
		catalog: models.DefaultCatalog,
	}
}

// Run seeds everything and signs the last seeded user out again.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	users, err := s.seedUsers(ctx)
	if err != nil {
		return sum, err
	}
	sum.Users = len(users)
	if len(users) == 0 {
		return sum, nil
	}

	posts, err := s.seedPosts(ctx, users)
	if err != nil {
		return sum, err
	}
	sum.Posts = len(posts)

	if len(posts) > 0 {
		if sum.Votes, err = s.seedVotes(ctx, users, posts); err != nil {
			return sum, err
		}
		if sum.Comments, err = s.seedComments(ctx, users, posts); err != nil {
			return sum, err
		}
	}
	if sum.Messages, err = s.seedMessages(ctx, users); err != nil {
		return sum, err
	}

	if s.svc.Auth != nil {
		if err := s.svc.Auth.Logout(ctx, users[len(users)-1].ID); err != nil {
			return sum, err
		}
	}

	observability.Logger.InfoContext(ctx, "seed complete",
		slog.Int("users", sum.Users),
		slog.Int("posts", sum.Posts),
		slog.Int("comments", sum.Comments),
		slog.Int("votes", sum.Votes),
		slog.Int("messages", sum.Messages),
	)
	return sum, nil
}

func (s *Seeder) seedUsers(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0, s.opts.NumUsers)
	years := s.catalog.AdmissionYears(time.Now())
	for i := 0; i < s.opts.NumUsers; i++ {
		first, last := s.faker.FirstName(), s.faker.LastName()
		campus := models.Campuses[i%len(models.Campuses)]
		username := fmt.Sprintf("%s.%s%d", slug(first, 12), slug(last, 12), i)
		email := username + "@" + domains[campus]

		u, err := s.svc.Users.CreateUser(ctx, email, username, s.opts.Password)
		if err != nil {
			return users, fmt.Errorf("seed user %s: %w", username, err)
		}

		name := first + " " + last
		year := years[s.faker.Number(0, len(years)-1)]
		branch := s.faker.RandomString(s.catalog.Branches)
		clubs := s.pickClubs(campus)
		bio := s.faker.Sentence(10)
		status := models.RelationshipStatuses[s.faker.Number(0, len(models.RelationshipStatuses)-1)]
		u, err = s.svc.Users.UpdateProfile(ctx, u.ID, service.ProfilePatch{
			Name:               &name,
			AdmissionYear:      &year,
			Campus:             &campus,
			Branch:             &branch,
			Clubs:              &clubs,
			Bio:                &bio,
			RelationshipStatus: &status,
		})
		if err != nil {
			return users, fmt.Errorf("seed profile %s: %w", username, err)
		}
		users = append(users, u)
	}
	return users, nil
}

// slug keeps the lowercase ASCII letters and digits of s, at most max of them.
func slug(s string, max int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() == max {
			break
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}

func (s *Seeder) pickClubs(campus models.Campus) []string {
	all := s.catalog.ClubsFor(campus)
	if len(all) == 0 {
		return []string{}
	}
	n := s.faker.Number(0, 3)
	picked := make([]string, 0, n)
	seen := make(map[string]bool)
	for len(picked) < n && len(seen) < len(all) {
		club := s.faker.RandomString(all)
		if !seen[club] {
			seen[club] = true
			picked = append(picked, club)
		}
	}
	return picked
}

func (s *Seeder) seedPosts(ctx context.Context, users []models.User) ([]models.Post, error) {
	posts := make([]models.Post, 0, s.opts.NumPosts)
	for i := 0; i < s.opts.NumPosts; i++ {
		author := users[s.faker.Number(0, len(users)-1)]
		in := service.CreatePostInput{
			AuthorID: author.ID,
			Content:  s.faker.Paragraph(1, 2, 12, " "),
		}
		if s.faker.Number(0, 3) == 0 {
			in.Media = []models.PostMedia{{
				URL:  fmt.Sprintf("https://picsum.photos/seed/%s/800/800", s.faker.UUID()),
				Type: models.MediaImage,
			}}
		}
		p, err := s.svc.Posts.CreatePost(ctx, in)
		if err != nil {
			return posts, fmt.Errorf("seed post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (s *Seeder) seedVotes(ctx context.Context, users []models.User, posts []models.Post) (int, error) {
	votes := 0
	for _, p := range posts {
		for _, u := range users {
			var err error
			switch s.faker.Number(0, 5) {
			case 0, 1:
				_, err = s.svc.Posts.ToggleLike(ctx, p.ID, u.ID)
			case 2:
				_, err = s.svc.Posts.ToggleDislike(ctx, p.ID, u.ID)
			default:
				continue
			}
			if err != nil {
				return votes, fmt.Errorf("seed vote: %w", err)
			}
			votes++
		}
	}
	return votes, nil
}

func (s *Seeder) seedComments(ctx context.Context, users []models.User, posts []models.Post) (int, error) {
	for i := 0; i < s.opts.NumComments; i++ {
		p := posts[s.faker.Number(0, len(posts)-1)]
		u := users[s.faker.Number(0, len(users)-1)]
		if _, err := s.svc.Posts.AddComment(ctx, p.ID, u.ID, s.faker.Sentence(8)); err != nil {
			return i, fmt.Errorf("seed comment: %w", err)
		}
	}
	return s.opts.NumComments, nil
}

func (s *Seeder) seedMessages(ctx context.Context, users []models.User) (int, error) {
	if len(users) < 2 {
		return 0, nil
	}
	for i := 0; i < s.opts.NumMessages; i++ {
		from := s.faker.Number(0, len(users)-1)
		to := s.faker.Number(0, len(users)-2)
		if to >= from {
			to++
		}
		if _, err := s.svc.Chat.SendMessage(ctx, users[from].ID, users[to].ID, s.faker.Sentence(6)); err != nil {
			return i, fmt.Errorf("seed message: %w", err)
		}
	}
	return s.opts.NumMessages, nil
}
