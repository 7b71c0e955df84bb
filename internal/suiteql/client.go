package suiteql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/suiteworks/suiteql-workbench/internal/auth/netsuite"
	"github.com/suiteworks/suiteql-workbench/internal/auth/token"
	"github.com/suiteworks/suiteql-workbench/internal/db/models"
	"github.com/suiteworks/suiteql-workbench/internal/logging"
	"github.com/suiteworks/suiteql-workbench/internal/util"
)

// Authorizer obtains a brand-new token interactively. Satisfied by
// *netsuite.Flow.
type Authorizer interface {
	Run(ctx context.Context, account *models.Account) (string, error)
}

// Result is one successful SuiteQL execution.
type Result struct {
	// Raw is the decoded response body as returned by NetSuite.
	Raw map[string]interface{} `json:"raw"`
	// Rows is the normalized result set (items, then data, then empty).
	Rows []interface{} `json:"rows"`
}

// Executor issues signed SuiteQL calls and drives the bounded retry
// ladder on authentication failures: initial call, refresh + one
// retry, one interactive reauthorization + one final retry. At most
// three network attempts plus one user-involving flow per Execute.
type Executor struct {
	tokens     *token.Manager
	flow       Authorizer
	httpClient *http.Client

	// accountLocks serializes Execute per account ID so concurrent
	// queries never race each other's credential-bundle writes or
	// refresh the same token twice.
	accountLocks sync.Map
}

// NewExecutor creates an executor. httpClient nil means a client with
// a 30 second timeout.
func NewExecutor(tokens *token.Manager, flow Authorizer, httpClient *http.Client) *Executor {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Executor{tokens: tokens, flow: flow, httpClient: httpClient}
}

// Execute runs one SuiteQL query for the account. The interactive flow
// runs at most once per call, either up front when no credential is
// stored or as the last rung of the ladder.
func (e *Executor) Execute(ctx context.Context, account *models.Account, query string) (*Result, error) {
	defer e.lockAccount(account.ID)()

	reqID := logging.GetRequestID(ctx)
	flowUsed := false

	accessToken, err := e.tokens.ObtainUsableToken(ctx, account)
	if err != nil {
		if !errors.Is(err, token.ErrNoCredential) && !errors.Is(err, token.ErrRefreshFailed) {
			return nil, err
		}
		log.Printf("[%s] 🔑 No usable token, starting interactive authorization", reqID)
		accessToken, err = e.flow.Run(ctx, account)
		if err != nil {
			return nil, err
		}
		flowUsed = true
	}

	cl, err := e.call(ctx, account, accessToken, query)
	if err != nil {
		return nil, err
	}
	switch cl.Kind {
	case KindSuccess:
		log.Printf("[%s] ✅ SuiteQL request succeeded on first attempt (%d rows)", reqID, len(cl.Rows))
		return &Result{Raw: cl.Raw, Rows: cl.Rows}, nil
	case KindParseFailure:
		return nil, fmt.Errorf("suiteql response: %s", cl.Message)
	case KindRequestFailure:
		return nil, fmt.Errorf("suiteql request failed: %s", cl.Message)
	}

	// Authentication failure: refresh and retry once. Any failure of
	// this rung, whatever the sub-reason, escalates to the next one.
	log.Printf("[%s] 🔄 Auth failure (%s), trying token refresh", reqID, cl.Message)
	if refreshed, rerr := e.tokens.Refresh(ctx, account); rerr == nil {
		retry, cerr := e.call(ctx, account, refreshed, query)
		if cerr == nil && retry.Kind == KindSuccess {
			log.Printf("[%s] ✅ SuiteQL request succeeded after token refresh (%d rows)", reqID, len(retry.Rows))
			return &Result{Raw: retry.Raw, Rows: retry.Rows}, nil
		}
	}

	if flowUsed {
		// The flow already ran for this request; never loop through
		// authorization twice.
		return nil, fmt.Errorf("authentication failed: %s", cl.Message)
	}

	log.Printf("[%s] 🔁 Refresh path exhausted, restarting full authorization", reqID)
	accessToken, err = e.flow.Run(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("reauthorization failed: %w", err)
	}

	final, err := e.call(ctx, account, accessToken, query)
	if err != nil {
		return nil, err
	}
	switch final.Kind {
	case KindSuccess:
		log.Printf("[%s] ✅ SuiteQL request succeeded after reauthorization (%d rows)", reqID, len(final.Rows))
		return &Result{Raw: final.Raw, Rows: final.Rows}, nil
	case KindParseFailure:
		return nil, fmt.Errorf("suiteql response: %s", final.Message)
	default:
		return nil, fmt.Errorf("suiteql request failed after reauthorization: %s", final.Message)
	}
}

func (e *Executor) lockAccount(id string) func() {
	v, _ := e.accountLocks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// call issues one signed request and classifies the response. A
// transport-level error is returned as-is and is terminal for the
// ladder.
func (e *Executor) call(ctx context.Context, account *models.Account, accessToken, query string) (Classification, error) {
	endpoint := account.QueryURL
	if endpoint == "" {
		endpoint = netsuite.DefaultQueryURL(account)
	}

	payload, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return Classification{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Classification{}, fmt.Errorf("failed to build suiteql request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	if strings.Contains(endpoint, "/query/v1/suiteql") {
		req.Header.Set("Prefer", "transient")
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return Classification{}, fmt.Errorf("suiteql network failure: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Classification{}, fmt.Errorf("failed to read suiteql response: %w", err)
	}

	cl := Classify(resp.StatusCode, body)
	if cl.Kind != KindSuccess {
		log.Printf("[%s] ⚠️ SuiteQL call returned %d: %s",
			logging.GetRequestID(ctx), resp.StatusCode, util.TruncateBytes(body))
	}
	return cl, nil
}
