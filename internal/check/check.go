// Package check runs field validation against live Reddit objects: it fetches
// a model, validates it, and records every report to history and metrics.
package check

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fieldcheck/internal/contract"
	"fieldcheck/internal/history"
	"fieldcheck/internal/models"
	"fieldcheck/internal/observability"
	"fieldcheck/internal/reddit"
)

// ErrNoComments is returned by FirstComment when the submission has no comments.
var ErrNoComments = errors.New("submission has no comments")

// Fetcher is the subset of the Reddit client the checker needs.
type Fetcher interface {
	GetUser(ctx context.Context, name string) (*models.Account, error)
	GetSubmission(ctx context.Context, id string) (*models.Submission, error)
	FrontPage() *reddit.Paginator
}

// Result groups the reports produced by one check.
type Result struct {
	Subject string            `json:"subject"`
	Reports []contract.Report `json:"reports"`
}

// OK reports whether every report passed.
func (r *Result) OK() bool {
	return r.Failure() == nil
}

// Failure returns the first failing report's failure, or nil.
func (r *Result) Failure() *contract.Failure {
	for _, rep := range r.Reports {
		if rep.Failure != nil {
			return rep.Failure
		}
	}
	return nil
}

// Option configures a Checker.
type Option func(*Checker)

// WithMetrics records every report in m.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Checker) {
		c.metrics = m
	}
}

// Checker validates fetched models.
type Checker struct {
	fetcher   Fetcher
	validator *contract.Validator
	history   history.LoggerInterface
	metrics   *observability.Metrics
}

// New creates a checker. A nil hist discards reports.
func New(fetcher Fetcher, validator *contract.Validator, hist history.LoggerInterface, opts ...Option) *Checker {
	if hist == nil {
		hist = &history.NoopLogger{}
	}
	c := &Checker{
		fetcher:   fetcher,
		validator: validator,
		history:   hist,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Account validates /user/{name}/about.
func (c *Checker) Account(ctx context.Context, name string) (*Result, error) {
	account, err := c.fetcher.GetUser(ctx, name)
	if err != nil {
		return nil, err
	}

	result := &Result{Subject: "account/" + name}
	c.validate(ctx, result, account)
	return result, nil
}

// Submission validates the submission with the given ID.
func (c *Checker) Submission(ctx context.Context, id string) (*Result, error) {
	submission, err := c.fetcher.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &Result{Subject: "submission/" + id}
	c.validate(ctx, result, submission)
	return result, nil
}

// FirstComment validates the first top-level comment of a submission. The
// submission itself is not validated.
func (c *Checker) FirstComment(ctx context.Context, submissionID string) (*Result, error) {
	submission, err := c.fetcher.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	comments := submission.Comments()
	if comments == nil {
		return nil, fmt.Errorf("submission %s: %w", submissionID, ErrNoComments)
	}
	children, err := comments.Children()
	if err != nil {
		return nil, fmt.Errorf("reading comments of %s: %w", submissionID, err)
	}
	if len(children) == 0 {
		return nil, fmt.Errorf("submission %s: %w", submissionID, ErrNoComments)
	}

	result := &Result{Subject: "submission/" + submissionID + "/comment"}
	c.validate(ctx, result, children[0])
	return result, nil
}

// FrontPageMedia validates every oEmbed and embedded-media descriptor on the
// first front page, in listing order. It stops at the first failing report.
func (c *Checker) FrontPageMedia(ctx context.Context) (*Result, error) {
	page, err := c.fetcher.FrontPage().Next(ctx)
	if err != nil {
		return nil, err
	}

	submissions, err := page.Submissions()
	if err != nil {
		return nil, fmt.Errorf("reading front page: %w", err)
	}

	result := &Result{Subject: "frontpage/media"}
	for _, s := range submissions {
		var media []contract.Model
		if o := s.OEmbedMedia(); o != nil {
			media = append(media, o)
		}
		if e := s.EmbeddedMedia(); e != nil {
			media = append(media, e)
		}
		for _, m := range media {
			if !c.validate(ctx, result, m) {
				return result, nil
			}
		}
	}

	if len(result.Reports) == 0 {
		slog.Info("no media found on front page", "submissions", len(submissions))
	}
	return result, nil
}

// validate appends m's report to result and records it. It returns false
// when the report failed.
func (c *Checker) validate(ctx context.Context, result *Result, m contract.Model) bool {
	report := c.validator.Validate(m)
	result.Reports = append(result.Reports, report)

	c.metrics.RecordValidation(report)
	c.history.Write(history.NewEntry(ctx, result.Subject, report))

	if f := report.Failure; f != nil {
		slog.Warn("validation failed",
			"subject", result.Subject,
			"model", report.Model,
			"owner", f.Owner,
			"operation", f.Operation,
			"kind", f.Kind,
			"message", f.Message,
		)
		return false
	}
	slog.Info("validation passed",
		"subject", result.Subject,
		"model", report.Model,
		"checked", report.Checked,
	)
	return true
}
