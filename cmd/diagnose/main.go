package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"

	"bookrec/internal/client"
	"bookrec/internal/config"
	"bookrec/internal/delivery"
	"bookrec/internal/logger"
)

func main() {
	cfg := config.Get()
	apiURL := flag.String("api", cfg.Client.BaseURL, "recommendation API base URL")
	grpcAddr := flag.String("grpc", fmt.Sprintf("localhost:%d", cfg.Health.Port), "gRPC health address")
	asin := flag.String("asin", "", "ASIN for a sample recommendation (skipped when empty)")
	flag.Parse()

	fmt.Println("🔍 === STARTING COMPONENT DIAGNOSTICS ===")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fmt.Printf("\n[1] Testing HTTP health (%s/health)...\n", *apiURL)
	checkHTTP(ctx, *apiURL)

	fmt.Printf("\n[2] Testing gRPC health (%s)...\n", *grpcAddr)
	checkGRPC(ctx, *grpcAddr)

	if *asin != "" {
		fmt.Printf("\n[3] Testing /recommend for %q...\n", *asin)
		checkRecommend(ctx, *apiURL, *asin)
	}

	fmt.Println("\n🏁 === DIAGNOSTICS COMPLETE ===")
}

func checkHTTP(ctx context.Context, base string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/health", nil)
	if err != nil {
		log.Printf("❌ Bad API URL: %v", err)
		return
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("❌ API health failed: %v", err)
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var h struct {
		OK    bool `json:"ok"`
		Books int  `json:"books"`
	}
	if err := json.Unmarshal(body, &h); err != nil || resp.StatusCode != http.StatusOK {
		fmt.Printf("⚠️ WARNING. HTTP Status: %d, body: %s\n", resp.StatusCode, body)
		return
	}
	fmt.Printf("✅ PASS. ok=%v, books=%d\n", h.OK, h.Books)
}

func checkGRPC(ctx context.Context, addr string) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Printf("❌ Failed to connect to gRPC health: %v", err)
		return
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: delivery.HealthService})
	if err != nil {
		log.Printf("❌ Health check failed: %v", err)
		return
	}
	out, _ := protojson.Marshal(resp)
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		fmt.Printf("⚠️ WARNING. %s\n", out)
		return
	}
	fmt.Printf("✅ PASS. %s\n", out)
}

func checkRecommend(ctx context.Context, base, asin string) {
	c := client.New(base, client.WithLogger(logger.Discard()))
	env, err := c.Recommend(ctx, asin)
	switch {
	case err != nil:
		log.Printf("❌ Recommend failed: %v", err)
	case env.IsError():
		fmt.Printf("⚠️ WARNING. Backend says: %s\n", *env.Error)
	default:
		fmt.Printf("✅ PASS. %d recommendations\n", len(env.Recommendation))
		for _, b := range env.Recommendation {
			fmt.Printf("   %-12s | %s\n", b.ASIN, b.Title)
		}
	}
}
