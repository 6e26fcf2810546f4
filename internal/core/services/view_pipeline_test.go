package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/lorrc/user-directory/internal/core/domain"
	"github.com/lorrc/user-directory/internal/core/services"
)

func TestComputeView_Filter(t *testing.T) {
	users := []domain.User{
		newUser("a", "Ana", "Zapata", "Peru"),
		newUser("b", "Bruno", "Young", "Chile"),
		newUser("c", "Carla", "Xu", "peru sur"),
	}

	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{name: "empty filter keeps everything", filter: "", want: []string{"a", "b", "c"}},
		{name: "case insensitive", filter: "PERU", want: []string{"a", "c"}},
		{name: "substring", filter: "eru", want: []string{"a", "c"}},
		{name: "whole country", filter: "peru sur", want: []string{"c"}},
		{name: "longer than any country", filter: "peru sur norte", want: []string{}},
		{name: "no match", filter: "Japan", want: []string{}},
		{name: "whitespace is significant", filter: " chile", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := services.ComputeView(users, tt.filter, domain.SortNone)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestComputeView_Sort(t *testing.T) {
	t.Run("no filter and no sort is the identity", func(t *testing.T) {
		users := []domain.User{
			newUser("a", "Zoe", "Adams", "Peru"),
			newUser("b", "Ana", "Brown", "Chile"),
		}

		got := services.ComputeView(users, "", domain.SortNone)
		assert.Equal(t, users, got)
	})

	t.Run("equal keys keep fetch order", func(t *testing.T) {
		users := []domain.User{
			newUser("a", "Zoe", "Adams", "France"),
			newUser("b", "Ana", "Brown", "Chile"),
			newUser("c", "Mia", "Clark", "France"),
			newUser("d", "Leo", "Davis", "Brazil"),
		}

		got := services.ComputeView(users, "", domain.SortBy(domain.SortByCountry))
		assert.Equal(t, []string{"d", "b", "a", "c"}, ids(got))
	})

	t.Run("accented names collate with their base letter", func(t *testing.T) {
		users := []domain.User{
			newUser("zoe", "Zoe", "Adams", "France"),
			newUser("emile", "Émile", "Brown", "France"),
			newUser("eva", "Eva", "Clark", "France"),
			newUser("ana", "ana", "Davis", "France"),
		}

		got := services.ComputeView(users, "", domain.SortBy(domain.SortByFirstName))
		assert.Equal(t, []string{"ana", "emile", "eva", "zoe"}, ids(got))
	})

	t.Run("sorts by last name", func(t *testing.T) {
		users := []domain.User{
			newUser("a", "Ana", "Young", "Peru"),
			newUser("b", "Bruno", "Álvarez", "Chile"),
			newUser("c", "Carla", "Martín", "Spain"),
		}

		got := services.ComputeView(users, "", domain.SortBy(domain.SortByLastName))
		assert.Equal(t, []string{"b", "c", "a"}, ids(got))
	})

	t.Run("filters before sorting", func(t *testing.T) {
		users := []domain.User{
			newUser("a", "Zoe", "Adams", "Peru"),
			newUser("b", "Ana", "Brown", "Chile"),
			newUser("c", "Mia", "Clark", "Peru"),
		}

		got := services.ComputeView(users, "peru", domain.SortBy(domain.SortByFirstName))
		assert.Equal(t, []string{"c", "a"}, ids(got))
	})

	t.Run("input is left untouched", func(t *testing.T) {
		users := []domain.User{
			newUser("a", "Zoe", "Adams", "Peru"),
			newUser("b", "Ana", "Brown", "Chile"),
		}

		services.ComputeView(users, "", domain.SortBy(domain.SortByFirstName))
		assert.Equal(t, []string{"a", "b"}, ids(users))
	})
}

func TestViewPipeline_Memoization(t *testing.T) {
	pipeline := services.NewViewPipeline(language.English)
	collection := domain.Collection{
		Users: []domain.User{
			newUser("a", "Zoe", "Adams", "Peru"),
			newUser("b", "Ana", "Brown", "Chile"),
		},
		Version:    4,
		Generation: 1,
	}
	byName := domain.SortBy(domain.SortByFirstName)

	first := pipeline.Compute(collection, "", byName)
	second := pipeline.Compute(collection, "", byName)
	assert.Equal(t, []string{"b", "a"}, ids(first))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, pipeline.Computations())

	pipeline.Compute(collection, "chi", byName)
	assert.Equal(t, 2, pipeline.Computations())

	collection.Version++
	collection.Users = collection.Users[:1]
	got := pipeline.Compute(collection, "chi", byName)
	assert.Empty(t, got)
	assert.Equal(t, 3, pipeline.Computations())

	collection.Generation++
	pipeline.Compute(collection, "chi", byName)
	assert.Equal(t, 4, pipeline.Computations())
}
