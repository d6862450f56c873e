package contrib

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nvandessel/neuralgraph/internal/logging"
)

const (
	// DefaultEndpoint is the public GitHub GraphQL endpoint.
	DefaultEndpoint = "https://api.github.com/graphql"

	// calendarQuery requests the last year of contribution days for a login.
	calendarQuery = `
query($login: String!) {
  user(login: $login) {
    contributionsCollection {
      contributionCalendar {
        totalContributions
        weeks {
          contributionDays {
            contributionLevel
            weekday
            date
          }
        }
      }
    }
  }
}`
)

// GitHubConfig configures a GitHubClient.
type GitHubConfig struct {
	// Token is the bearer token sent with the query.
	Token string
	// Login is the user whose calendar is fetched.
	Login string
	// Endpoint overrides DefaultEndpoint.
	Endpoint string
	// Timeout bounds the request. Zero leaves the transport default.
	Timeout time.Duration
}

// GitHubClient fetches contribution calendars from the GitHub GraphQL API.
type GitHubClient struct {
	token    string
	login    string
	endpoint string
	client   *http.Client

	logger *slog.Logger
	trace  *logging.TraceLogger
}

// NewGitHubClient creates a GitHubClient from cfg.
func NewGitHubClient(cfg GitHubConfig) *GitHubClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &GitHubClient{
		token:    cfg.Token,
		login:    cfg.Login,
		endpoint: endpoint,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

// SetLogger sets the operational logger and the run trace.
func (c *GitHubClient) SetLogger(logger *slog.Logger, trace *logging.TraceLogger) {
	c.logger = logger
	c.trace = trace
}

// Login returns the login this client queries.
func (c *GitHubClient) Login() string {
	return c.login
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type calendarResponse struct {
	Data struct {
		User *struct {
			ContributionsCollection struct {
				ContributionCalendar struct {
					TotalContributions int `json:"totalContributions"`
					Weeks              []struct {
						ContributionDays []struct {
							ContributionLevel string `json:"contributionLevel"`
							Weekday           int    `json:"weekday"`
							Date              string `json:"date"`
						} `json:"contributionDays"`
					} `json:"weeks"`
				} `json:"contributionCalendar"`
			} `json:"contributionsCollection"`
		} `json:"user"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

// Fetch issues a single calendar query.
//
// A non-200 status, an undecodable body, GraphQL errors, or an unknown
// login all degrade to an all-zero grid with a nil error. Only transport
// failures are returned as errors.
func (c *GitHubClient) Fetch(ctx context.Context) (*Grid, error) {
	body, err := json.Marshal(graphQLRequest{
		Query:     calendarQuery,
		Variables: map[string]any{"login": c.login},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.degrade("unexpected status", "status", resp.StatusCode)
		return &Grid{}, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var parsed calendarResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.degrade("malformed response", "error", err)
		return &Grid{}, nil
	}
	if len(parsed.Errors) > 0 {
		c.degrade("graphql error", "error", parsed.Errors[0].Message)
		return &Grid{}, nil
	}
	if parsed.Data.User == nil {
		c.degrade("user not found", "login", c.login)
		return &Grid{}, nil
	}

	cal := parsed.Data.User.ContributionsCollection.ContributionCalendar
	var g Grid
	for w, week := range cal.Weeks {
		if w >= Weeks {
			break
		}
		for _, day := range week.ContributionDays {
			g.Set(w, day.Weekday, ParseLevel(day.ContributionLevel))
		}
	}

	if c.logger != nil {
		c.logger.Debug("fetched contribution calendar",
			"login", c.login, "weeks", len(cal.Weeks), "total", cal.TotalContributions)
	}
	c.trace.Log(map[string]any{
		"event":  "fetch",
		"source": "github",
		"login":  c.login,
		"weeks":  len(cal.Weeks),
		"active": g.Active(),
	})
	return &g, nil
}

// degrade records why the fetch fell back to an empty grid.
func (c *GitHubClient) degrade(reason string, args ...any) {
	if c.logger != nil {
		c.logger.Warn("contribution fetch degraded to empty grid",
			append([]any{"reason", reason}, args...)...)
	}
	c.trace.Log(map[string]any{
		"event":  "fetch_degraded",
		"reason": reason,
		"login":  c.login,
	})
}
