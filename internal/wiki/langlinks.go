package wiki

import (
	"context"
	"net/url"
	"strings"

	"github.com/termfx/langfx/internal/util"
)

// Langlinks resolves a batch of entity names known in srcLang to their
// titles in targetLangs. The returned slice is parallel to entities: slot i
// maps language code to title for entities[i], always including the
// srcLang self-entry. Entities the endpoint does not know come back with
// the self-entry only.
//
// One call issues one request per page of the continuation; every page
// merges into the same per-entity slots. Callers should keep batches at
// BatchSize or below.
func (c *Client) Langlinks(ctx context.Context, entities []string, srcLang string, targetLangs []string) ([]map[string]string, error) {
	results := make([]map[string]string, len(entities))
	if len(entities) == 0 {
		return results, nil
	}

	wanted := map[string]struct{}{}
	for _, lang := range targetLangs {
		wanted[lang] = struct{}{}
	}

	params := url.Values{
		"action":        {"query"},
		"titles":        {strings.Join(entities, "|")},
		"prop":          {"langlinks"},
		"lllimit":       {"500"},
		"formatversion": {"2"},
		"format":        {"json"},
	}

	for {
		res, err := c.get(ctx, srcLang, params)
		if err != nil {
			return nil, err
		}

		for _, page := range res.Query.Pages {
			title := util.Underscore(page.Title)
			for idx, entity := range entities {
				if entity != title {
					continue
				}
				if results[idx] == nil {
					results[idx] = map[string]string{}
				}
				results[idx][srcLang] = title
				for _, link := range page.Langlinks {
					if _, ok := wanted[link.Lang]; ok {
						results[idx][link.Lang] = util.Underscore(link.Title)
					}
				}
			}
		}

		token, ok := res.Continue["llcontinue"]
		if !ok || token == "" {
			break
		}
		params.Set("llcontinue", token)
	}

	for idx, entity := range entities {
		if results[idx] == nil {
			results[idx] = map[string]string{srcLang: entity}
		}
	}
	return results, nil
}
