package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"blogengine/internal/config"
	"blogengine/internal/database"
	"blogengine/internal/domain"
	"blogengine/internal/modules/auth"
	"blogengine/internal/modules/comment"
	"blogengine/internal/modules/post"
	"blogengine/internal/pkg/password"
	"blogengine/internal/pkg/validator"
	"blogengine/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const demoPassword = "Secret123"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if err := run(context.Background(), logger); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "blog.db"
	}
	cost := 10
	if cfg, err := config.Load(); err == nil {
		dsn, cost = cfg.DatabaseURL, cfg.BcryptCost
	}

	db, err := database.Connect(dsn)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// Cleanup old data (in safe order to avoid foreign key errors)
	logger.Info("cleaning old data")
	for _, m := range []any{&domain.Vote{}, &domain.Comment{}, &domain.Post{}, &domain.RefreshToken{}, &domain.User{}} {
		if err := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
			return err
		}
	}

	hasher, err := password.New(cost)
	if err != nil {
		return err
	}
	digest, err := hasher.Hash(demoPassword)
	if err != nil {
		return err
	}

	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	comments := repository.NewCommentRepository(db)
	votes := repository.NewVoteRepository(db)

	var authors []*domain.User
	for _, email := range []string{"janedow@example.com", "johndow@example.com"} {
		if err := checkDemo("user", auth.SignupRequest{Email: email, Password: demoPassword}); err != nil {
			return err
		}
		u := &domain.User{Email: email, PasswordHash: digest, IsActivated: true, ActivationLink: uuid.NewString()}
		if err := users.Create(ctx, u); err != nil {
			return fmt.Errorf("create user %s: %w", email, err)
		}
		authors = append(authors, u)
		logger.Info("user created", "email", email, "password", demoPassword)
	}

	for i, u := range authors {
		for n := 1; n <= 2; n++ {
			pr := post.PostRequest{
				Title:   fmt.Sprintf("Post %d by author %d", n, i+1),
				Content: "Lorem ipsum dolor sit amet, consectetur adipiscing elit.",
			}
			cr := comment.CommentRequest{Author: "reader", Content: "Great read!"}
			rr := comment.CommentRequest{Author: "author", Content: "Thanks!"}
			for what, req := range map[string]any{"post": pr, "comment": cr, "reply": rr} {
				if err := checkDemo(what, req); err != nil {
					return err
				}
			}

			p := &domain.Post{Title: pr.Title, Content: pr.Content, UserID: u.ID}
			if err := posts.Create(ctx, p); err != nil {
				return err
			}

			c := &domain.Comment{Author: cr.Author, Content: cr.Content, PostID: p.ID}
			if err := comments.Create(ctx, c); err != nil {
				return err
			}
			if err := comments.CreateReply(ctx, c, &domain.Comment{Author: rr.Author, Content: rr.Content}); err != nil {
				return err
			}

			for v, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
				value := 1
				if v == 2 {
					value = -1
				}
				if _, err := votes.Cast(ctx, &domain.Vote{Value: value, IP: ip, CommentID: c.ID}); err != nil {
					return err
				}
			}
		}
	}

	logger.Info("seed completed", "users", len(authors), "posts", 2*len(authors))
	return nil
}

// checkDemo runs the request rules the HTTP layer applies over seed data.
func checkDemo(what string, req any) error {
	if errs := validator.Validate(req); errs != nil {
		return fmt.Errorf("invalid demo %s: %v", what, errs)
	}
	return nil
}
