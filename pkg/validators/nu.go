package validators

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
)

// DefaultNuEndpoint is the public W3C instance of the Nu HTML Checker.
const DefaultNuEndpoint = "https://validator.w3.org/nu/"

// NuValidator posts the document to a Nu HTML Checker and parses its XML
// message list. With Options.LocalOnly set it never touches the network and
// delegates to the local markup validator instead.
type NuValidator struct {
	Endpoint string
	Client   *http.Client
	Retry    RetryConfig
	local    *MarkupValidator
}

// NewNuValidator creates a remote validator. An empty endpoint selects the
// public W3C checker; a nil client selects a client with a 30s timeout.
func NewNuValidator(endpoint string, client *http.Client) *NuValidator {
	if endpoint == "" {
		endpoint = DefaultNuEndpoint
	}
	if client == nil {
		client = defaultHTTPClient()
	}
	return &NuValidator{Endpoint: endpoint, Client: client, local: NewMarkupValidator()}
}

func (v *NuValidator) Name() string { return "nu" }

// Validate sends the document to the checker.
func (v *NuValidator) Validate(ctx context.Context, doc Document, opts Options) (*Result, error) {
	if opts.LocalOnly {
		slog.Debug("Nu validator running in local-only mode", "path", doc.Path)
		return v.local.Validate(ctx, doc, opts)
	}

	endpoint, err := url.Parse(v.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid validator endpoint '%s': %w", v.Endpoint, err)
	}
	query := endpoint.Query()
	query.Set("out", "xml")
	endpoint.RawQuery = query.Encode()

	slog.Debug("Sending document to Nu checker", "endpoint", endpoint.String(), "bytes", len(doc.Content))
	var result *Result
	err = v.Retry.do(ctx, v.Name(), func() error {
		var err error
		result, err = v.post(ctx, endpoint.String(), doc, opts)
		return err
	})
	return result, err
}

func (v *NuValidator) post(ctx context.Context, endpoint string, doc Document, opts Options) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(doc.Content))
	if err != nil {
		return nil, fmt.Errorf("failed to build validator request: %w", err)
	}
	req.Header.Set("Content-Type", "text/html; charset=utf-8")
	req.Header.Set("User-Agent", "pagecheck")

	resp, err := v.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("validator request failed: %w", ctx.Err())
		}
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &statusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return parseNuMessages(resp.Body, opts)
}

// parseNuMessages converts the checker's XML output into a Result.
func parseNuMessages(r io.Reader, opts Options) (*Result, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse validator response: %w", err)
	}
	if xmlquery.FindOne(root, "//*[local-name()='messages']") == nil {
		return nil, fmt.Errorf("validator response has no <messages> element")
	}

	if fatal := xmlquery.FindOne(root, "//*[local-name()='non-document-error']"); fatal != nil {
		return nil, fmt.Errorf("validator could not check the document: %s", messageText(fatal))
	}

	result := &Result{}
	for _, node := range xmlquery.Find(root, "//*[local-name()='error']") {
		result.Errors = append(result.Errors, nuViolation(node, SeverityError))
	}
	if !opts.Quiet {
		for _, node := range xmlquery.Find(root, "//*[local-name()='info'][@type='warning']") {
			result.Warnings = append(result.Warnings, nuViolation(node, SeverityWarning))
		}
	}
	result.Success = len(result.Errors) == 0

	if opts.Debug {
		slog.Debug("Nu checker response parsed", "errors", len(result.Errors), "warnings", len(result.Warnings))
	}
	return result, nil
}

func nuViolation(node *xmlquery.Node, severity string) Violation {
	v := Violation{
		Rule:     "nu-" + severity,
		Message:  messageText(node),
		Severity: severity,
	}
	if line := node.SelectAttr("last-line"); line != "" {
		v.Line, _ = strconv.Atoi(line)
	} else if line := node.SelectAttr("line"); line != "" {
		v.Line, _ = strconv.Atoi(line)
	}
	if col := node.SelectAttr("last-column"); col != "" {
		v.Column, _ = strconv.Atoi(col)
	}
	if extract := xmlquery.FindOne(node, "./*[local-name()='extract']"); extract != nil {
		v.Extract = strings.TrimSpace(extract.InnerText())
	}
	return v
}

func messageText(node *xmlquery.Node) string {
	if msg := xmlquery.FindOne(node, "./*[local-name()='message']"); msg != nil {
		return strings.Join(strings.Fields(msg.InnerText()), " ")
	}
	return strings.Join(strings.Fields(node.InnerText()), " ")
}
