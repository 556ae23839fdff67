package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/trustgraph/trustgraph/internal/adapters/http/api"
	"github.com/trustgraph/trustgraph/internal/adapters/repository"
	service "github.com/trustgraph/trustgraph/internal/app"
	"github.com/trustgraph/trustgraph/pkg/logger"
)

func init() { _ = logger.Init() }

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestServer() (*httptest.Server, *repository.MemoryStore) {
	store := repository.NewMemoryStore()
	svc := service.New(store,
		service.WithClock(func() time.Time { return testNow }),
		service.WithMaxLeaderboardLimit(10),
	)
	mux := http.NewServeMux()
	api.NewServer(svc).Register(context.Background(), mux)
	return httptest.NewServer(mux), store
}

func eventBody(subject, refID string) string {
	ref := ""
	if refID != "" {
		ref = fmt.Sprintf(`"external_ref_type":"task","external_ref_id":%q,`, refID)
	}
	return fmt.Sprintf(`{
		"subject_agent_id": %q,
		"source": "taskmint",
		"event_type": "task_completed",
		"outcome": "success",
		"severity": 50,
		%s
		"occurred_at": %q
	}`, subject, ref, testNow.Add(-time.Hour).Format(time.RFC3339))
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestEventIngestAPI(t *testing.T) {
	Convey("Given a running API server", t, func() {
		srv, _ := newTestServer()
		defer srv.Close()

		Convey("When posting a valid event", func() {
			resp, body := postJSON(t, srv.URL+"/trust/events", eventBody("agent-a", ""))

			Convey("Then it should be created with an id", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				So(body["id"], ShouldNotBeEmpty)
				So(body["duplicate"], ShouldEqual, false)
			})
		})

		Convey("When posting the same idempotency ref twice", func() {
			first, _ := postJSON(t, srv.URL+"/trust/events", eventBody("agent-a", "t-1"))
			second, body := postJSON(t, srv.URL+"/trust/events", eventBody("agent-a", "t-1"))

			Convey("Then the repeat should acknowledge as duplicate", func() {
				So(first.StatusCode, ShouldEqual, http.StatusCreated)
				So(second.StatusCode, ShouldEqual, http.StatusOK)
				So(body["duplicate"], ShouldEqual, true)
			})
		})

		Convey("When posting malformed JSON", func() {
			resp, body := postJSON(t, srv.URL+"/trust/events", "{not json")

			Convey("Then it should be rejected with 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(body["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When posting an event with an unknown type", func() {
			bad := strings.Replace(eventBody("agent-a", ""), "task_completed", "task_paused", 1)
			resp, _ := postJSON(t, srv.URL+"/trust/events", bad)

			Convey("Then validation should reject it", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When posting an event with a bad timestamp", func() {
			bad := strings.Replace(eventBody("agent-a", ""), testNow.Add(-time.Hour).Format(time.RFC3339), "yesterday", 1)
			resp, _ := postJSON(t, srv.URL+"/trust/events", bad)

			Convey("Then it should be rejected with 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When posting a batch with an internal duplicate", func() {
			batch := fmt.Sprintf(`{"events":[%s,%s]}`,
				eventBody("agent-a", "t-9"), eventBody("agent-a", "t-9"))
			resp, body := postJSON(t, srv.URL+"/trust/events/batch", batch)

			Convey("Then the duplicate should be counted as skipped", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				So(body["inserted"], ShouldEqual, 1)
				So(body["skipped"], ShouldEqual, 1)
			})
		})

		Convey("When using the wrong method", func() {
			resp, err := http.Get(srv.URL + "/trust/events")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the route should report not found", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestAgentReadAPI(t *testing.T) {
	Convey("Given a server with one scored agent", t, func() {
		srv, _ := newTestServer()
		defer srv.Close()
		postJSON(t, srv.URL+"/trust/events", eventBody("agent-a", ""))

		Convey("When reading the agent's scores", func() {
			resp, body := getJSON(t, srv.URL+"/trust/agents/agent-a")

			Convey("Then persisted scores should be returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["agent_id"], ShouldEqual, "agent-a")
				So(body["window"], ShouldEqual, "30d")
				scores := body["scores"].(map[string]any)
				So(scores["volume"], ShouldEqual, 1)
				So(scores["reliability"], ShouldBeGreaterThan, 0.9)
			})
		})

		Convey("When reading an unknown agent", func() {
			resp, body := getJSON(t, srv.URL+"/trust/agents/agent-x")

			Convey("Then the neutral default should be returned, not 404", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				scores := body["scores"].(map[string]any)
				So(scores["reliability"], ShouldEqual, 0.5)
				So(scores["integrity"], ShouldEqual, 1)
				So(scores["composite"], ShouldEqual, 0.5)
				So(scores["volume"], ShouldEqual, 0)
			})
		})

		Convey("When requesting an unknown window", func() {
			resp, _ := getJSON(t, srv.URL+"/trust/agents/agent-a?window=90d")

			Convey("Then it should be rejected with 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When reading the agent's badges", func() {
			resp, body := getJSON(t, srv.URL+"/trust/agents/agent-a/badges")

			Convey("Then a badge list should be returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["agent_id"], ShouldEqual, "agent-a")
				So(body["badges"], ShouldNotBeNil)
			})
		})

		Convey("When the path has no agent id", func() {
			resp, _ := getJSON(t, srv.URL+"/trust/agents/")

			Convey("Then it should be rejected with 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestRankAndLeaderboardAPI(t *testing.T) {
	Convey("Given a server with ranked agents", t, func() {
		srv, store := newTestServer()
		defer srv.Close()
		ctx := context.Background()

		// Two sources and enough volume make the subjects eligible.
		for _, subject := range []string{"agent-a", "agent-b"} {
			for i := 0; i < 5; i++ {
				body := eventBody(subject, "")
				if i%2 == 0 {
					body = strings.Replace(body, "taskmint", "wakenet", 1)
				}
				if subject == "agent-b" && i > 2 {
					body = strings.Replace(body, "task_completed", "task_failed", 1)
					body = strings.Replace(body, `"outcome": "success"`, `"outcome": "failure"`, 1)
				}
				postJSON(t, srv.URL+"/trust/events", body)
			}
		}

		Convey("When asking for a rank", func() {
			resp, body := getJSON(t, srv.URL+"/trust/rank/agent-a")

			Convey("Then the better agent should rank first of two", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["ranked"], ShouldEqual, true)
				So(body["rank"], ShouldEqual, 1)
				So(body["total"], ShouldEqual, 2)
			})
		})

		Convey("When asking for the rank of an unscored agent", func() {
			resp, body := getJSON(t, srv.URL+"/trust/rank/agent-x")

			Convey("Then it should report unranked, not an error", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["ranked"], ShouldEqual, false)
			})
		})

		Convey("When reading the leaderboard", func() {
			resp, body := getJSON(t, srv.URL+"/leaderboard?limit=5")

			Convey("Then rows should come back ordered", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				rows := body["rows"].([]any)
				So(rows, ShouldHaveLength, 2)
				first := rows[0].(map[string]any)
				So(first["agent_id"], ShouldEqual, "agent-a")
				So(first["rank"], ShouldEqual, 1)
			})
		})

		Convey("When filtering the leaderboard to verified sources", func() {
			So(store.SetSourceVerified(ctx, "taskmint", true), ShouldBeNil)
			So(store.SetSourceVerified(ctx, "wakenet", true), ShouldBeNil)
			resp, body := getJSON(t, srv.URL+"/leaderboard?scope=verified")

			Convey("Then verified subjects should still appear", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["scope"], ShouldEqual, "verified")
				So(body["rows"].([]any), ShouldHaveLength, 2)
			})
		})

		Convey("When passing an invalid scope", func() {
			resp, _ := getJSON(t, srv.URL+"/leaderboard?scope=friends")

			Convey("Then it should be rejected with 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When passing a junk limit", func() {
			resp, _ := getJSON(t, srv.URL+"/leaderboard?limit=banana")

			Convey("Then it should be rejected with 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestGateJobsAndOpsAPI(t *testing.T) {
	Convey("Given a running API server", t, func() {
		srv, _ := newTestServer()
		defer srv.Close()

		Convey("When checking the dispatch gate for a reliable agent", func() {
			postJSON(t, srv.URL+"/trust/events", eventBody("agent-a", ""))
			resp, body := getJSON(t, srv.URL+"/trust/gate/dispatch?agent_id=agent-a")

			Convey("Then dispatch should be allowed", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["allowed"], ShouldEqual, true)
				So(body["threshold"], ShouldEqual, 0.5)
			})
		})

		Convey("When checking the gate for a failing agent", func() {
			for i := 0; i < 3; i++ {
				body := strings.Replace(eventBody("agent-bad", ""), "task_completed", "task_failed", 1)
				body = strings.Replace(body, `"outcome": "success"`, `"outcome": "failure"`, 1)
				postJSON(t, srv.URL+"/trust/events", body)
			}
			resp, body := getJSON(t, srv.URL+"/trust/gate/dispatch?agent_id=agent-bad")

			Convey("Then dispatch should be refused with a reason", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["allowed"], ShouldEqual, false)
				So(body["reason"], ShouldContainSubstring, "0.5")
			})
		})

		Convey("When the gate is missing its agent_id", func() {
			resp, _ := getJSON(t, srv.URL+"/trust/gate/dispatch")

			Convey("Then it should be rejected with 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When triggering a recompute sweep", func() {
			resp, body := postJSON(t, srv.URL+"/jobs/recompute", "")

			Convey("Then the sweep result should be reported", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["message"], ShouldNotBeEmpty)
			})
		})

		Convey("When reading stats", func() {
			resp, body := getJSON(t, srv.URL+"/stats")

			Convey("Then service counters should be present", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["maxLeaderboardLimit"], ShouldEqual, 10)
			})
		})

		Convey("When probing liveness", func() {
			resp, body := getJSON(t, srv.URL+"/healthz")

			Convey("Then the server should report ok", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["status"], ShouldEqual, "ok")
			})
		})
	})
}
