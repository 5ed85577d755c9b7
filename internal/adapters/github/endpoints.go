package github

import (
	"context"
	stderrs "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	json "github.com/goccy/go-json"

	perr "ghdigest/internal/platform/errors"
)

// ErrTruncated reports a walk that stopped at its page cap with a next link still pending
var ErrTruncated = stderrs.New("github page cap reached")

// ReceivedEvents walks /users/{login}/received_events newest first, handing each
// page to fn until fn returns false or pages run out. Reaching MaxPages ends the
// walk without error since older events are past the window GitHub serves
func (c *Client) ReceivedEvents(ctx context.Context, token, login string, fn func([]Event) (bool, error)) error {
	path := fmt.Sprintf("/users/%s/received_events?per_page=%d", url.PathEscape(login), c.opts.PerPage)
	err := paginate(ctx, c, path, token, c.opts.MaxPages, func(raws []json.RawMessage) (bool, error) {
		page := make([]Event, 0, len(raws))
		for _, r := range raws {
			var e Event
			if err := json.Unmarshal(r, &e); err != nil {
				return false, perr.Wrap(err, perr.ErrorCodeJSON, "decode received event")
			}
			e.Raw = r
			page = append(page, e)
		}
		return fn(page)
	})
	if stderrs.Is(err, ErrTruncated) {
		c.log.Warn().Str("login", login).Int("pages", c.opts.MaxPages).Msg("received events truncated at page cap")
		return nil
	}
	return err
}

// Followers walks every page of /users/{login}/followers. A list longer than
// FollowerPages fails with ErrTruncated rather than returning a partial list
func (c *Client) Followers(ctx context.Context, token, login string, fn func([]User) (bool, error)) error {
	path := fmt.Sprintf("/users/%s/followers?per_page=%d", url.PathEscape(login), c.opts.PerPage)
	return paginate(ctx, c, path, token, c.opts.FollowerPages, func(raws []json.RawMessage) (bool, error) {
		page, err := decodeUsers(raws)
		if err != nil {
			return false, err
		}
		return fn(page)
	})
}

// UserByLogin fetches a profile; a vanished account surfaces as NotFound
func (c *Client) UserByLogin(ctx context.Context, token, login string) (User, error) {
	path := "/users/" + url.PathEscape(login)
	resp, err := c.Do(ctx, http.MethodGet, path, token)
	if err != nil {
		return User{}, err
	}
	b, err := c.readBody(resp, path)
	if err != nil {
		return User{}, err
	}
	var out User
	if err := json.Unmarshal(b, &out); err != nil {
		return User{}, perr.Wrap(err, perr.ErrorCodeJSON, "decode user")
	}
	out.Raw = b
	return out, nil
}

func decodeUsers(raws []json.RawMessage) ([]User, error) {
	out := make([]User, 0, len(raws))
	for _, r := range raws {
		var u User
		if err := json.Unmarshal(r, &u); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeJSON, "decode user")
		}
		u.Raw = r
		out = append(out, u)
	}
	return out, nil
}

// paginate follows Link rel="next" for at most limit pages; an empty page ends the walk.
// A next link left over once limit pages were read is ErrTruncated
func paginate(ctx context.Context, c *Client, path, token string, limit int, fn func([]json.RawMessage) (bool, error)) error {
	next := path
	for page := 0; next != ""; page++ {
		if page == limit {
			return perr.Wrapf(ErrTruncated, perr.ErrorCodeUpstream, "%s: next page past %d", path, limit)
		}
		resp, err := c.Do(ctx, http.MethodGet, next, token)
		if err != nil {
			return err
		}
		link := nextLink(resp.Header)
		b, err := c.readBody(resp, next)
		if err != nil {
			return err
		}
		var raws []json.RawMessage
		if err := json.Unmarshal(b, &raws); err != nil {
			return perr.Wrap(err, perr.ErrorCodeJSON, "decode page")
		}
		if len(raws) == 0 {
			return nil
		}
		more, err := fn(raws)
		if err != nil || !more {
			return err
		}
		next = link
	}
	return nil
}

func (c *Client) readBody(resp *http.Response, path string) ([]byte, error) {
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Str("path", path).Msg("github close body failed")
		}
	}()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUpstream, "github read body")
	}
	return b, nil
}
