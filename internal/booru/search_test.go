package booru_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"booru-go/internal/booru"
	"booru-go/internal/model"
	"booru-go/internal/result"
	"booru-go/internal/testutil"
)

func TestGlobToLike(t *testing.T) {
	tests := []struct {
		glob string
		want string
	}{
		{"red", "red"},
		{"re*d*", "re%d%"},
		{"100%", `100\%`},
		{"a?b", "a_b"},
		{"snake_case", `snake\_case`},
		{`a\*b`, "a*b"},
		{`a\?b`, "a?b"},
		{`a\%b`, `a\%b`},
		{`a\\b`, `a\\b`},
		{`a\`, "a"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.glob, func(t *testing.T) {
			if got := booru.GlobToLike(tt.glob); got != tt.want {
				t.Errorf("GlobToLike(%q) = %q, want %q", tt.glob, got, tt.want)
			}
		})
	}
}

func TestMatchTags(t *testing.T) {
	b := testutil.NewTestBooru(t)
	for _, name := range []string{"red", "green", "reed", "100%", "1000", "a*b", "axb"} {
		mustTag(t, b, name)
	}

	tests := []struct {
		glob string
		want []string
	}{
		{"red", []string{"red"}},
		{"re*d", []string{"red", "reed"}},
		{"*ee*", []string{"green", "reed"}},
		{"r?d", []string{"red"}},
		{"100%", []string{"100%"}},
		{"100?", []string{"100%", "1000"}},
		{`a\*b`, []string{"a*b"}},
		{"a*b", []string{"a*b", "axb"}},
		{"blue", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.glob, func(t *testing.T) {
			tags, err := b.MatchTags(tt.glob)
			if err != nil {
				t.Fatalf("MatchTags() error = %v", err)
			}
			got := []string{}
			for _, tag := range tags {
				got = append(got, tag.Name)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("MatchTags(%q) mismatch (-want +got):\n%s", tt.glob, diff)
			}
		})
	}
}

func TestCompileSearch(t *testing.T) {
	b := testutil.NewTestBooru(t)
	mustTag(t, b, "red")
	mustTag(t, b, "blue")

	t.Run("rejects an empty search", func(t *testing.T) {
		for _, search := range []string{"", "   \t"} {
			if _, err := b.CompileSearch(search); !errors.Is(err, result.InvalidRequest) {
				t.Errorf("CompileSearch(%q) error = %v, want InvalidRequest", search, err)
			}
		}
	})

	t.Run("joins tokens with AND", func(t *testing.T) {
		q, err := b.CompileSearch("re* -blue rating:g")
		if err != nil {
			t.Fatalf("CompileSearch() error = %v", err)
		}

		want := "SELECT * FROM Posts WHERE " +
			"(SELECT COUNT(*) FROM PostTags WHERE PostTags.PostId == Posts.Id AND PostTags.TagId IN (1)) > 0" +
			" AND NOT ((SELECT COUNT(*) FROM PostTags WHERE PostTags.PostId == Posts.Id AND PostTags.TagId IN (2)) > 0)" +
			" AND Posts.Rating == 1"
		if got := q.String(); got != want {
			t.Errorf("CompileSearch() =\n%s\nwant\n%s", got, want)
		}
	})

	t.Run("unmatched pattern compiles to an empty set", func(t *testing.T) {
		q, err := b.CompileSearch("purple")
		if err != nil {
			t.Fatalf("CompileSearch() error = %v", err)
		}
		want := "SELECT * FROM Posts WHERE (SELECT COUNT(*) FROM PostTags WHERE PostTags.PostId == Posts.Id AND PostTags.TagId IN ()) > 0"
		if got := q.String(); got != want {
			t.Errorf("CompileSearch() = %s, want %s", got, want)
		}
	})

	t.Run("ratings match by prefix", func(t *testing.T) {
		tests := map[string]string{
			"rating:g":            "Posts.Rating == 1",
			"RATING:General":      "Posts.Rating == 1",
			"rating:s":            "Posts.Rating == 2",
			"rating:questionable": "Posts.Rating IN (0, 3)",
			"rating:e":            "Posts.Rating == 4",
			"rating:u":            "Posts.Rating == 0",
			"-rating:e":           "NOT (Posts.Rating == 4)",
		}
		for search, cond := range tests {
			q, err := b.CompileSearch(search)
			if err != nil {
				t.Fatalf("CompileSearch(%q) error = %v", search, err)
			}
			if got, want := q.String(), "SELECT * FROM Posts WHERE "+cond; got != want {
				t.Errorf("CompileSearch(%q) = %s, want %s", search, got, want)
			}
		}
	})
}

func TestFindPosts(t *testing.T) {
	b := testutil.NewTestBooru(t)
	mustTag(t, b, "red")
	mustTag(t, b, "blue")

	post := func(seed byte, rating int64, tags ...string) *model.Post {
		t.Helper()
		p := newPost(seed)
		p.Rating = rating
		if err := b.CreatePost(p); err != nil {
			t.Fatalf("CreatePost() error = %v", err)
		}
		for _, tag := range tags {
			if err := b.AddTagToPost(p.ID, tag); err != nil {
				t.Fatalf("AddTagToPost(%s) error = %v", tag, err)
			}
		}
		return p
	}

	p1 := post(1, model.RatingGeneral, "red")
	p2 := post(2, model.RatingGeneral, "red", "blue")
	p3 := post(3, model.RatingUnrated, "blue")
	p4 := post(4, model.RatingQuestionable)

	tests := []struct {
		search string
		want   []*model.Post
	}{
		{"re* -blue rating:g", []*model.Post{p1}},
		{"red", []*model.Post{p1, p2}},
		{"red blue", []*model.Post{p2}},
		{"-red", []*model.Post{p3, p4}},
		{"rating:q", []*model.Post{p3, p4}},
		{"blue rating:q", []*model.Post{p3}},
		{"purple", nil},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			got, err := b.FindPosts(tt.search)
			if err != nil {
				t.Fatalf("FindPosts() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FindPosts(%q) mismatch (-want +got):\n%s", tt.search, diff)
			}
		})
	}

	if _, err := b.FindPosts(""); !errors.Is(err, result.InvalidRequest) {
		t.Errorf("FindPosts(\"\") error = %v, want InvalidRequest", err)
	}
}
