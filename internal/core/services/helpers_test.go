package services_test

import (
	"io"
	"log/slog"

	"github.com/lorrc/user-directory/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newUser(id, first, last, country string) domain.User {
	return domain.User{
		ID:        id,
		FirstName: first,
		LastName:  last,
		Country:   country,
		Thumbnail: "https://randomuser.me/api/portraits/thumb/" + id + ".jpg",
	}
}

func ids(users []domain.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

type broadcastFunc func(event domain.Event) error

func (f broadcastFunc) Broadcast(event domain.Event) error { return f(event) }
