package wiki

import (
	"context"
	"net/url"

	"github.com/termfx/langfx/internal/util"
)

// CategoryMembers returns the set of page titles (underscored) that belong
// to a category in the given language edition. Pages arrive in chunks of the
// endpoint's maximum; the cmcontinue token is followed until exhausted.
func (c *Client) CategoryMembers(ctx context.Context, category, lang string) (map[string]struct{}, error) {
	params := url.Values{
		"action":        {"query"},
		"list":          {"categorymembers"},
		"cmtitle":       {category},
		"cmlimit":       {"max"},
		"cmtype":        {"page"},
		"formatversion": {"2"},
		"format":        {"json"},
	}

	members := map[string]struct{}{}
	for {
		res, err := c.get(ctx, lang, params)
		if err != nil {
			return nil, err
		}

		for _, m := range res.Query.CategoryMembers {
			members[util.Underscore(m.Title)] = struct{}{}
		}

		token, ok := res.Continue["cmcontinue"]
		if !ok || token == "" {
			break
		}
		params.Set("cmcontinue", token)
	}
	return members, nil
}
