package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/verdantx/carbon-trade-api/internal/accounts"
	"github.com/verdantx/carbon-trade-api/internal/auth"
	"github.com/verdantx/carbon-trade-api/internal/database"
	"github.com/verdantx/carbon-trade-api/internal/overdue"
	"github.com/verdantx/carbon-trade-api/internal/requests"
	"github.com/verdantx/carbon-trade-api/internal/settlement"
	"github.com/verdantx/carbon-trade-api/internal/types"
	"github.com/verdantx/carbon-trade-api/pkg/middleware"
)

const (
	numCompanies    = 6
	minRequests     = 10
	maxRequests     = 40
	serverAddress   = "http://localhost:8080"
	simJWTSecret    = "simulation-secret"
	simDatabasePath = "simulation.db"
	startingCarbon  = 1000.0
	startingCash    = 500000.0
)

var (
	sides   = []string{"BUY", "SELL"}
	reasons = []string{
		"quarterly offset target",
		"surplus allowance",
		"fleet emissions",
		"production overshoot",
		"voluntary offset program",
	}
)

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	mu         sync.Mutex
	durations  []time.Duration
	totalCalls int
	failures   int
}

// addDuration records a new duration measurement for the route
func (rs *routeStats) addDuration(d time.Duration) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

func (rs *routeStats) addFailure() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.failures++
}

// calculate computes performance statistics from recorded durations
func (rs *routeStats) calculate() (min, max, mean, median, p95 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0
	}

	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))
	median = rs.durations[len(rs.durations)/2]

	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p95 = rs.durations[p95idx]

	return
}

// company is one simulated market participant
type company struct {
	name  string
	email string
	token string
}

// simulationClient handles HTTP communication with the carbon trade API
type simulationClient struct {
	baseURL string
	client  *http.Client
	stats   map[string]*routeStats
}

func newSimulationClient() *simulationClient {
	return &simulationClient{
		baseURL: serverAddress,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		stats: map[string]*routeStats{
			"register": {name: "Register"},
			"login":    {name: "Login"},
			"create":   {name: "Create Request"},
			"received": {name: "Received Requests"},
			"decide":   {name: "Decide"},
			"balances": {name: "Balances"},
		},
	}
}

func (sc *simulationClient) post(path, token string, payload, out interface{}) (int, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, err
		}
		body = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequest("POST", sc.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := sc.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	log.Debug().Str("path", path).Str("response", string(respBody)).Msg("POST response")

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
		}
	}
	return resp.StatusCode, nil
}

func (sc *simulationClient) get(path, token string, out interface{}) (int, error) {
	req, err := http.NewRequest("GET", sc.baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := sc.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	log.Debug().Str("path", path).Str("response", string(respBody)).Msg("GET response")

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("GET %s failed with status %d: %s", path, resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}
	return resp.StatusCode, nil
}

// register creates a company via the API
func (sc *simulationClient) register(c *company) error {
	start := time.Now()
	defer func() {
		sc.stats["register"].addDuration(time.Since(start))
	}()

	status, err := sc.post("/api/v1/auth/register", "", map[string]string{
		"company_name": c.name,
		"email":        c.email,
		"password":     "simulation-password",
	}, nil)
	if err != nil {
		sc.stats["register"].addFailure()
		return err
	}
	if status != http.StatusCreated {
		sc.stats["register"].addFailure()
		return fmt.Errorf("register failed with status: %d", status)
	}
	return nil
}

// login authenticates a company and stores its JWT
func (sc *simulationClient) login(c *company) error {
	start := time.Now()
	defer func() {
		sc.stats["login"].addDuration(time.Since(start))
	}()

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"jwt_token"`
		} `json:"data"`
	}
	if _, err := sc.post("/api/v1/auth/login", "", map[string]string{
		"email":    c.email,
		"password": "simulation-password",
	}, &result); err != nil {
		sc.stats["login"].addFailure()
		return err
	}
	if result.Data.Token == "" {
		sc.stats["login"].addFailure()
		return fmt.Errorf("no token in login response for %s", c.email)
	}
	c.token = result.Data.Token
	return nil
}

// createRequest posts a random trade request and returns its ID
func (sc *simulationClient) createRequest(c *company) (string, error) {
	start := time.Now()
	defer func() {
		sc.stats["create"].addDuration(time.Since(start))
	}()

	payload := map[string]interface{}{
		"request_type":      sides[rand.Intn(len(sides))],
		"request_reason":    reasons[rand.Intn(len(reasons))],
		"carbon_unit_price": float64(rand.Intn(50) + 1),
		"carbon_quantity":   float64(rand.Intn(20) + 1),
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			RequestID string `json:"request_id"`
		} `json:"data"`
	}
	status, err := sc.post("/api/v1/requests", c.token, payload, &result)
	if err != nil {
		sc.stats["create"].addFailure()
		return "", err
	}
	if status != http.StatusCreated || result.Data.RequestID == "" {
		sc.stats["create"].addFailure()
		return "", fmt.Errorf("create request failed with status %d", status)
	}
	return result.Data.RequestID, nil
}

// receivedRequests fetches the company's received inbox
func (sc *simulationClient) receivedRequests(c *company) ([]types.ReceivedRequest, error) {
	start := time.Now()
	defer func() {
		sc.stats["received"].addDuration(time.Since(start))
	}()

	var result struct {
		Success bool                    `json:"success"`
		Data    []types.ReceivedRequest `json:"data"`
	}
	if _, err := sc.get("/api/v1/requests/received", c.token, &result); err != nil {
		sc.stats["received"].addFailure()
		return nil, err
	}
	return result.Data, nil
}

// decide attempts to accept or reject a request; reports whether it won
func (sc *simulationClient) decide(c *company, requestID, decision string) (bool, error) {
	start := time.Now()
	defer func() {
		sc.stats["decide"].addDuration(time.Since(start))
	}()

	status, err := sc.post(
		fmt.Sprintf("/api/v1/requests/%s/decision", requestID),
		c.token,
		map[string]string{"decision": decision},
		nil,
	)
	if err != nil {
		sc.stats["decide"].addFailure()
		return false, err
	}

	switch status {
	case http.StatusOK, http.StatusCreated:
		return true, nil
	case http.StatusConflict, http.StatusForbidden, http.StatusBadRequest:
		// Lost the race, own request, or not enough funds; all expected
		return false, nil
	default:
		sc.stats["decide"].addFailure()
		return false, fmt.Errorf("decide failed with status %d", status)
	}
}

// balances fetches a company's committed balances
func (sc *simulationClient) balances(c *company) (*types.BalancesResponse, error) {
	start := time.Now()
	defer func() {
		sc.stats["balances"].addDuration(time.Since(start))
	}()

	var result struct {
		Success bool                   `json:"success"`
		Data    types.BalancesResponse `json:"data"`
	}
	if _, err := sc.get("/api/v1/me/balances", c.token, &result); err != nil {
		sc.stats["balances"].addFailure()
		return nil, err
	}
	return &result.Data, nil
}

// printPerformanceStats outputs formatted performance statistics for all API endpoints
func (sc *simulationClient) printPerformanceStats() {
	fmt.Println("\nAPI Performance Statistics")
	fmt.Println(strings.Repeat("-", 90))
	fmt.Printf("%-20s %10s %10s %10s %10s %10s %10s %10s\n",
		"Endpoint", "Calls", "Errors", "Min", "Max", "Mean", "Median", "P95")
	fmt.Println(strings.Repeat("-", 90))

	for _, stats := range sc.stats {
		min, max, mean, median, p95 := stats.calculate()
		fmt.Printf("%-20s %10d %10d %10s %10s %10s %10s %10s\n",
			stats.name,
			stats.totalCalls,
			stats.failures,
			min.Round(time.Millisecond),
			max.Round(time.Millisecond),
			mean.Round(time.Millisecond),
			median.Round(time.Millisecond),
			p95.Round(time.Millisecond))
	}
	fmt.Println(strings.Repeat("-", 90))
}

// main runs the market simulation: it starts a local API server, registers a
// set of companies, posts random trade requests and races their decisions
func main() {
	// Fresh database per run
	_ = os.Remove(simDatabasePath)

	go func() {
		if err := startServer(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for server to start
	time.Sleep(2 * time.Second)

	sc := newSimulationClient()

	// Register and log in the market participants
	companies := make([]*company, numCompanies)
	for i := range companies {
		companies[i] = &company{
			name:  fmt.Sprintf("Sim Carbon Co %d", i+1),
			email: fmt.Sprintf("sim%d@carbon.test", i+1),
		}
		if err := sc.register(companies[i]); err != nil {
			log.Fatal().Err(err).Str("company", companies[i].name).Msg("Failed to register company")
		}
		if err := sc.login(companies[i]); err != nil {
			log.Fatal().Err(err).Str("company", companies[i].name).Msg("Failed to log in company")
		}
	}
	log.Info().Int("companies", numCompanies).Msg("Market participants ready")

	// Post random trade requests from random companies
	targetRequests := rand.Intn(maxRequests-minRequests) + minRequests
	requestIDs := make([]string, 0, targetRequests)
	for i := 0; i < targetRequests; i++ {
		poster := companies[rand.Intn(len(companies))]
		requestID, err := sc.createRequest(poster)
		if err != nil {
			log.Error().Err(err).Str("company", poster.name).Msg("Failed to create request")
			continue
		}
		requestIDs = append(requestIDs, requestID)
	}
	log.Info().Int("requests_created", len(requestIDs)).Msg("All trade requests posted")

	// Race decisions: every company tries to decide every request it received
	var wg sync.WaitGroup
	var decided, lost int64
	var decidedMu sync.Mutex

	for _, c := range companies {
		wg.Add(1)
		go func(c *company) {
			defer wg.Done()

			received, err := sc.receivedRequests(c)
			if err != nil {
				log.Error().Err(err).Str("company", c.name).Msg("Failed to fetch received requests")
				return
			}

			for _, r := range received {
				if r.Status != "PENDING" {
					continue
				}
				decision := "ACCEPT"
				if rand.Intn(4) == 0 {
					decision = "REJECT"
				}
				won, err := sc.decide(c, r.RequestID, decision)
				if err != nil {
					log.Error().Err(err).Str("request_id", r.RequestID).Msg("Decide call failed")
					continue
				}
				decidedMu.Lock()
				if won {
					decided++
				} else {
					lost++
				}
				decidedMu.Unlock()
			}
		}(c)
	}
	wg.Wait()

	// Verify conservation: total carbon across accounts never changes
	var totalCarbon, totalCash float64
	for _, c := range companies {
		bal, err := sc.balances(c)
		if err != nil {
			log.Error().Err(err).Str("company", c.name).Msg("Failed to fetch balances")
			continue
		}
		totalCarbon += bal.CarbonBalance
		totalCash += bal.CashBalance
		log.Info().
			Str("company", bal.CompanyName).
			Float64("carbon", bal.CarbonBalance).
			Float64("cash", bal.CashBalance).
			Msg("Final balances")
	}

	expectedCarbon := startingCarbon * float64(numCompanies)
	expectedCash := startingCash * float64(numCompanies)

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("CARBON MARKET SIMULATION SUMMARY")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf(`
Requests posted:      %d
Decisions won:        %d
Decisions rejected:   %d (race losers, own requests, insufficient funds)
Total carbon:         %.2f (expected %.2f)
Total cash:           %.2f (expected %.2f)
`, len(requestIDs), decided, lost, totalCarbon, expectedCarbon, totalCash, expectedCash)

	if totalCarbon != expectedCarbon || totalCash != expectedCash {
		log.Error().
			Float64("total_carbon", totalCarbon).
			Float64("total_cash", totalCash).
			Msg("Conservation check FAILED")
	} else {
		log.Info().Msg("Conservation check passed")
	}

	sc.printPerformanceStats()
}

// startServer initializes and starts the carbon trade API server
func startServer() error {
	db, err := database.NewDatabase(simDatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	authService := auth.NewService(db, simJWTSecret, startingCarbon, startingCash)
	accountsService := accounts.NewService(db)
	requestsService := requests.NewService(db)
	settlementService := settlement.NewService(db)
	overdueTracker := overdue.NewTracker(db, 7*24*time.Hour)

	authHandlers := auth.NewGinHandlers(authService)
	accountsHandlers := accounts.NewGinHandlers(accountsService)
	requestsHandlers := requests.NewGinHandlers(requestsService)
	settlementHandlers := settlement.NewGinHandlers(settlementService)
	overdueHandlers := overdue.NewGinHandlers(overdueTracker)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	{
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/register", authHandlers.RegisterHandler())
			authRoutes.POST("/login", authHandlers.LoginHandler())
		}

		me := v1.Group("/me")
		me.Use(middleware.JWTAuth(simJWTSecret))
		{
			me.GET("/balances", accountsHandlers.GetBalancesHandler())
			me.GET("/requests", requestsHandlers.MyRequestsHandler())
		}

		reqRoutes := v1.Group("/requests")
		reqRoutes.Use(middleware.JWTAuth(simJWTSecret))
		{
			reqRoutes.POST("", requestsHandlers.CreateRequestHandler())
			reqRoutes.GET("/received", overdueHandlers.ReceivedRequestsHandler())
			reqRoutes.POST("/received/:received_id/viewed", overdueHandlers.AcknowledgeHandler())
			reqRoutes.POST("/:request_id/decision", settlementHandlers.DecideRequestHandler())
		}
	}

	return router.Run(":8080")
}
