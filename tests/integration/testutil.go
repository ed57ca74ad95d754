//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/felix-chat/felix/internal/api"
	"github.com/felix-chat/felix/internal/audit"
	"github.com/felix-chat/felix/internal/chat"
	"github.com/felix-chat/felix/internal/history"
	"github.com/felix-chat/felix/internal/llm"
	"github.com/felix-chat/felix/internal/middleware"
	"github.com/felix-chat/felix/internal/profile"
	"github.com/felix-chat/felix/internal/quota"
	"github.com/felix-chat/felix/internal/search"
	"github.com/felix-chat/felix/internal/tts"
)

type TestEnv struct {
	Pool        *pgxpool.Pool
	RedisClient *redis.Client
	Server      *httptest.Server
	Completion  *ScriptedCompletion
	TTSProvider *ScriptedSynthesis
}

// ScriptedCompletion stands in for the completion API so integration tests
// never leave the machine.
type ScriptedCompletion struct {
	Reply string
}

func (s *ScriptedCompletion) Complete(_ context.Context, msgs []llm.Message) (string, error) {
	if s.Reply != "" {
		return s.Reply, nil
	}
	return fmt.Sprintf("echo: %s", msgs[len(msgs)-1].Content), nil
}

// ScriptedSynthesis stands in for the speech provider.
type ScriptedSynthesis struct {
	Audio []byte
}

func (s *ScriptedSynthesis) Synthesize(context.Context, string) ([]byte, error) {
	if s.Audio != nil {
		return s.Audio, nil
	}
	return []byte("fake mp3"), nil
}

var testEnv *TestEnv

// SetupTestEnv starts the shared containers once per test binary. Shared
// resources are not tied to any single test's cleanup; the testcontainers
// reaper collects them when the process exits.
func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	if testEnv != nil {
		return testEnv
	}

	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "felix_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}

	pgHost, _ := pgContainer.Host(ctx)
	pgPort, _ := pgContainer.MappedPort(ctx, "5432")

	// Start Redis container
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting redis container: %v", err)
	}

	redisHost, _ := redisContainer.Host(ctx)
	redisPort, _ := redisContainer.MappedPort(ctx, "6379")

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/felix_test?sslmode=disable", pgHost, pgPort.Port())
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connecting to postgres: %v", err)
	}

	// Run migrations
	m, err := migrate.New(fmt.Sprintf("file://%s", getMigrationsPath()), dsn)
	if err != nil {
		t.Fatalf("creating migrator: %v", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("running migrations: %v", err)
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", redisHost, redisPort.Port()),
	})

	// Wire the pipeline with scripted providers
	histStore := history.NewPostgresStore(pool)
	profileStore := profile.NewPostgresStore(pool)
	queryStore := search.NewRedisRecentQueryStore(redisClient, 20*time.Minute)
	ttsUsageStore := quota.NewPostgresTTSUsageStore(pool)
	auditRepo := audit.NewRepository(pool)

	completion := &ScriptedCompletion{}
	ttsProvider := &ScriptedSynthesis{}

	guard := search.NewGuard(queryStore, 10*time.Minute, 128)
	limiter := quota.NewRateLimiter(redisClient, 100, time.Minute)
	assembler := chat.NewAssembler(histStore, profileStore, guard, nil, chat.Options{
		HistoryLimit:      20,
		TokenBudget:       8192,
		ReplyTokenReserve: 2048,
		EnableProfile:     true,
		EnableSearch:      false,
	})
	chatSvc := chat.NewService(assembler, completion, histStore, limiter, nil, true)
	chatHandler := chat.NewHandler(chatSvc)

	audioDir, err := os.MkdirTemp("", "felix-audio-*")
	if err != nil {
		t.Fatalf("creating audio dir: %v", err)
	}
	audioFiles, err := tts.NewFileStore(audioDir)
	if err != nil {
		t.Fatalf("creating audio file store: %v", err)
	}
	ttsTracker := quota.NewTTSTracker(ttsUsageStore, 1000)
	ttsHandler := tts.NewHandler(ttsProvider, ttsTracker, audioFiles, nil)

	auditHandler := audit.NewHandler(auditRepo)

	ttsIPLimiter := middleware.NewRateLimiter(redisClient, 1000, 60)

	router := api.NewRouter(pool, redisClient, nil, api.RouterConfig{
		TTSRateLimiter: ttsIPLimiter.Middleware,
	}, api.HandlerSet{
		Chat:        chatHandler.Chat,
		History:     chatHandler.History,
		Synthesize:  ttsHandler.Synthesize,
		StreamAudio: ttsHandler.StreamAudio,
		ListAudit:   auditHandler.List,
	})

	server := httptest.NewServer(router)

	testEnv = &TestEnv{
		Pool:        pool,
		RedisClient: redisClient,
		Server:      server,
		Completion:  completion,
		TTSProvider: ttsProvider,
	}

	return testEnv
}

func getMigrationsPath() string {
	paths := []string{
		"../../migrations",
		"../../../migrations",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	log.Fatal("migrations directory not found")
	return ""
}

// Helper functions

func DoRequest(t *testing.T, env *TestEnv, method, path string, body any) *http.Response {
	t.Helper()
	var bodyReader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, env.Server.URL+path, bodyReader)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("doing request: %v", err)
	}
	return resp
}

func ParseResponse(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	return result
}
