package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

// GetPageSource fetches the current wikitext of the page with the given
// title.
func (c *Client) GetPageSource(ctx context.Context, title string) (*Page, error) {
	if title == "" {
		return nil, errors.New("page title is required")
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "revisions")
	params.Set("rvprop", "ids|content")
	params.Set("rvslots", "main")
	params.Set("titles", title)

	body, err := c.do(ctx, params)
	if err != nil {
		return nil, err
	}

	var resp queryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(resp.Query.Pages) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, title)
	}

	p := resp.Query.Pages[0]
	if p.Missing || p.Invalid || len(p.Revisions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, title)
	}

	rev := p.Revisions[0]
	return &Page{
		PageID:       p.PageID,
		Title:        p.Title,
		RevisionID:   rev.RevID,
		ContentModel: rev.Slots.Main.ContentModel,
		Source:       rev.Slots.Main.Content,
	}, nil
}

// SiteInfo fetches general information about the wiki. It doubles as a
// connectivity check.
func (c *Client) SiteInfo(ctx context.Context) (*SiteInfo, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("meta", "siteinfo")
	params.Set("siprop", "general")

	body, err := c.do(ctx, params)
	if err != nil {
		return nil, err
	}

	var resp queryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Query.General == nil {
		return nil, errors.New("response has no site information")
	}
	return resp.Query.General, nil
}
