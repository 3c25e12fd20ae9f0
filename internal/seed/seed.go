// Package seed creates demo data for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"levelforum/internal/leveling"
	"levelforum/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	NumUsers      int
	NumTopics     int
	PostsPerTopic int
	ShouldClean   bool
}

// DefaultOptions returns a small but lively data set.
func DefaultOptions() Options {
	return Options{
		NumUsers:      25,
		NumTopics:     8,
		PostsPerTopic: 6,
	}
}

var topicTitles = []string{
	"General", "Gaming", "Music", "Movies", "Programming", "Linux",
	"Fitness", "Cooking", "Travel", "Books", "Science", "History",
	"Photography", "DIY", "Finance",
}

// Run populates the database with users, topics, posts, comments, votes and
// reports. Experience is written consistently with the vote ledger so the
// derived levels look right.
func Run(db *gorm.DB, opts Options) error {
	gofakeit.Seed(time.Now().UnixNano())
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if opts.ShouldClean {
		if err := clean(db); err != nil {
			return fmt.Errorf("clean: %w", err)
		}
	}

	users, err := seedUsers(db, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("users: %w", err)
	}

	topics, err := seedTopics(db, rng, users, opts.NumTopics)
	if err != nil {
		return fmt.Errorf("topics: %w", err)
	}

	posts, comments, err := seedContent(db, rng, users, topics, opts.PostsPerTopic)
	if err != nil {
		return fmt.Errorf("content: %w", err)
	}

	if err := seedVotes(db, rng, users, posts, comments); err != nil {
		return fmt.Errorf("votes: %w", err)
	}

	if err := seedReports(db, rng, users, posts); err != nil {
		return fmt.Errorf("reports: %w", err)
	}

	log.Printf("Seeded %d users, %d topics, %d posts, %d comments",
		len(users), len(topics), len(posts), len(comments))
	return nil
}

func clean(db *gorm.DB) error {
	tables := []any{
		&models.ErrorLog{}, &models.Notification{}, &models.Report{},
		&models.Vote{}, &models.Comment{}, &models.Post{},
		&models.TopicFollow{}, &models.UserTopicRole{}, &models.Topic{},
		&models.User{},
	}
	for _, table := range tables {
		if err := db.Where("1 = 1").Delete(table).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedUsers(db *gorm.DB, n int) ([]models.User, error) {
	if n <= 0 {
		n = 25
	}

	// One shared hash keeps seeding fast; every demo account logs in with
	// "password123".
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		role := models.RoleUser
		switch i {
		case 0:
			role = models.RoleAdmin
		case 1, 2:
			role = models.RoleModerator
		}
		users = append(users, models.User{
			Username:     fmt.Sprintf("%s%d", gofakeit.Username(), i),
			Email:        fmt.Sprintf("seed%d@%s", i, gofakeit.DomainName()),
			PasswordHash: string(hash),
			GlobalRole:   role,
			AvatarURL:    fmt.Sprintf("https://i.pravatar.cc/150?u=seed%d", i),
		})
	}
	if err := db.Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func seedTopics(db *gorm.DB, rng *rand.Rand, users []models.User, n int) ([]models.Topic, error) {
	if n <= 0 || n > len(topicTitles) {
		n = 8
	}

	topics := make([]models.Topic, 0, n)
	for i := 0; i < n; i++ {
		creator := users[rng.Intn(len(users))]
		topic := models.Topic{
			Title:          topicTitles[i],
			Description:    gofakeit.Sentence(10),
			CreatedByID:    &creator.ID,
			LastActivityAt: time.Now().UTC(),
		}
		if err := db.Create(&topic).Error; err != nil {
			return nil, err
		}

		if err := db.Create(&models.UserTopicRole{
			UserID: creator.ID, TopicID: topic.ID, Role: models.RoleOwner,
		}).Error; err != nil {
			return nil, err
		}

		// The creator plus a random slice of users follow each topic.
		followers := map[uint]bool{creator.ID: true}
		for _, u := range users {
			if rng.Intn(3) == 0 {
				followers[u.ID] = true
			}
		}
		for userID := range followers {
			if err := db.Create(&models.TopicFollow{UserID: userID, TopicID: topic.ID}).Error; err != nil {
				return nil, err
			}
		}
		topics = append(topics, topic)
	}
	return topics, nil
}

func pastTime(rng *rand.Rand, maxDays int) time.Time {
	back := time.Duration(rng.Intn(maxDays*24*60)) * time.Minute
	return time.Now().UTC().Add(-back)
}

func seedContent(db *gorm.DB, rng *rand.Rand, users []models.User, topics []models.Topic, perTopic int) ([]models.Post, []models.Comment, error) {
	if perTopic <= 0 {
		perTopic = 6
	}

	var posts []models.Post
	var comments []models.Comment
	for _, topic := range topics {
		for i := 0; i < perTopic; i++ {
			author := users[rng.Intn(len(users))]
			post := models.Post{
				TopicID:   topic.ID,
				AuthorID:  author.ID,
				Title:     gofakeit.Sentence(5),
				Body:      gofakeit.Paragraph(1, 3, 8, "\n"),
				CreatedAt: pastTime(rng, 60),
			}
			if err := db.Create(&post).Error; err != nil {
				return nil, nil, err
			}
			posts = append(posts, post)

			for j := 0; j < rng.Intn(5); j++ {
				commenter := users[rng.Intn(len(users))]
				comment := models.Comment{
					PostID:    post.ID,
					AuthorID:  commenter.ID,
					Body:      gofakeit.Sentence(12),
					CreatedAt: pastTime(rng, 30),
				}
				if err := db.Create(&comment).Error; err != nil {
					return nil, nil, err
				}
				comments = append(comments, comment)

				// Occasionally a one-level reply.
				if rng.Intn(3) == 0 {
					replier := users[rng.Intn(len(users))]
					reply := models.Comment{
						PostID:          post.ID,
						AuthorID:        replier.ID,
						ParentCommentID: &comment.ID,
						Body:            gofakeit.Sentence(8),
						CreatedAt:       pastTime(rng, 14),
					}
					if err := db.Create(&reply).Error; err != nil {
						return nil, nil, err
					}
					comments = append(comments, reply)
				}
			}
		}
	}
	return posts, comments, nil
}

func seedVotes(db *gorm.DB, rng *rand.Rand, users []models.User, posts []models.Post, comments []models.Comment) error {
	upvotesByAuthor := map[uint]int{}

	castVotes := func(targetType models.ContentType, targetID, authorID uint) error {
		for _, voter := range users {
			if voter.ID == authorID || rng.Intn(4) != 0 {
				continue
			}
			value := 1
			if rng.Intn(5) == 0 {
				value = -1
			}
			vote := models.Vote{
				TargetType: targetType,
				TargetID:   targetID,
				UserID:     voter.ID,
				Value:      value,
			}
			if err := db.Create(&vote).Error; err != nil {
				return err
			}
			if value == 1 {
				upvotesByAuthor[authorID]++
			}
		}
		return nil
	}

	for _, post := range posts {
		if err := castVotes(models.ContentTypePost, post.ID, post.AuthorID); err != nil {
			return err
		}
	}
	for _, comment := range comments {
		if err := castVotes(models.ContentTypeComment, comment.ID, comment.AuthorID); err != nil {
			return err
		}
	}

	// Experience mirrors the upvote count, as the vote ledger would have
	// accumulated it.
	for authorID, upvotes := range upvotesByAuthor {
		exp := upvotes * leveling.ExpPerUpvote
		if err := db.Model(&models.User{}).Where("id = ?", authorID).
			Update("experience", exp).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedReports(db *gorm.DB, rng *rand.Rand, users []models.User, posts []models.Post) error {
	reasons := []string{"spam", "harassment", "off topic", "misinformation"}

	for _, post := range posts {
		if rng.Intn(10) != 0 {
			continue
		}
		reporter := users[rng.Intn(len(users))]
		if reporter.ID == post.AuthorID {
			continue
		}
		report := models.Report{
			TargetType: models.ContentTypePost,
			TargetID:   post.ID,
			ReporterID: reporter.ID,
			Reason:     reasons[rng.Intn(len(reasons))],
			Status:     models.ReportStatusOpen,
		}
		if err := db.Create(&report).Error; err != nil {
			return err
		}
	}
	return nil
}
