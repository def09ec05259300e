package booru

import (
	"fmt"
	"strings"

	"booru-go/internal/entity"
	"booru-go/internal/model"
	"booru-go/internal/query"
	"booru-go/internal/result"
)

// GlobToLike converts a tag glob into a LIKE pattern escaped with '\'.
// '*' matches any run and '?' any single character; '\' makes the next
// character literal. LIKE wildcards in the input are literal.
func GlobToLike(glob string) string {
	var b strings.Builder
	b.Grow(len(glob) + 4)

	for i := 0; i < len(glob); i++ {
		switch c := glob[i]; c {
		case '\\':
			if i+1 < len(glob) {
				i++
				writeLiteral(&b, glob[i])
			}
		case '*':
			b.WriteByte('%')
		case '?':
			b.WriteByte('_')
		default:
			writeLiteral(&b, c)
		}
	}
	return b.String()
}

func writeLiteral(b *strings.Builder, c byte) {
	if c == '%' || c == '_' || c == '\\' {
		b.WriteByte('\\')
	}
	b.WriteByte(c)
}

// MatchTags returns the tags whose name matches glob, ordered by id.
func (b *Booru) MatchTags(glob string) ([]*model.Tag, error) {
	q := query.Select("Tags").
		Where(query.Raw(`Name LIKE $Pattern ESCAPE '\'`)).
		OrderBy("Id")

	tags, err := entity.List[model.Tag](b.db, q.String(), entity.Params{"Pattern": GlobToLike(glob)})
	if err != nil {
		return nil, fmt.Errorf("matching tags %q: %w", glob, err)
	}
	return tags, nil
}

const ratingPrefix = "rating:"

// ratingConditions is keyed by the first letter after "rating:", so
// rating:general and rating:g are the same token. Questionable includes
// unrated posts.
var ratingConditions = map[byte]query.Condition{
	'u': query.Equal("Posts.Rating", "0"),
	'g': query.Equal("Posts.Rating", "1"),
	's': query.Equal("Posts.Rating", "2"),
	'q': query.In("Posts.Rating", "0, 3"),
	'e': query.Equal("Posts.Rating", "4"),
}

func ratingCondition(token string) (query.Condition, bool) {
	lower := strings.ToLower(token)
	if len(lower) <= len(ratingPrefix) || !strings.HasPrefix(lower, ratingPrefix) {
		return nil, false
	}
	c, ok := ratingConditions[lower[len(ratingPrefix)]]
	return c, ok
}

// CompileSearch turns a whitespace separated search into a SELECT over
// Posts. Every token must hold. A tag glob requires a matching tag on the
// post, rating:<g|s|q|e|u>... filters by rating, and a leading '-' negates
// the token.
func (b *Booru) CompileSearch(search string) (*query.Query, error) {
	tokens := strings.Fields(search)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("compiling empty search: %w", result.InvalidRequest)
	}

	q := query.Select("Posts")
	for _, token := range tokens {
		c, err := b.tokenCondition(token)
		if err != nil {
			return nil, err
		}
		q.Where(c)
	}
	return q, nil
}

func (b *Booru) tokenCondition(token string) (query.Condition, error) {
	if rest, ok := strings.CutPrefix(token, "-"); ok && rest != "" {
		c, err := b.tokenCondition(rest)
		if err != nil {
			return nil, err
		}
		return query.Not(c), nil
	}

	if c, ok := ratingCondition(token); ok {
		return c, nil
	}

	tags, err := b.MatchTags(token)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}

	count := query.Select("PostTags").
		Column("COUNT(*)").
		WhereEqual("PostTags.PostId", "Posts.Id").
		Where(query.InList("PostTags.TagId", ids))
	return query.Compare("("+count.String()+")", ">", "0"), nil
}

// FindPosts returns the posts matching search ordered by id.
func (b *Booru) FindPosts(search string) ([]*model.Post, error) {
	q, err := b.CompileSearch(search)
	if err != nil {
		return nil, err
	}

	posts, err := entity.List[model.Post](b.db, q.OrderBy("Posts.Id").String(), nil)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", search, err)
	}
	return posts, nil
}
