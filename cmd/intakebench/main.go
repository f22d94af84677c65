package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Open-WP-Club/phone-order-woo/internal/cache"
	"github.com/Open-WP-Club/phone-order-woo/internal/model"
	"github.com/Open-WP-Club/phone-order-woo/internal/repository"
	"github.com/Open-WP-Club/phone-order-woo/internal/service"
	"github.com/Open-WP-Club/phone-order-woo/pkg/logger"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// 本地压测：并发打 Submit 流水线，验证吞吐与不超卖
func main() {
	mustDo(logger.Init("release"))

	N := envInt("N", 5000)
	CONC := envInt("CONC", 16)
	STOCK := envInt("STOCK", N/2)

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "file:intakebench?mode=memory&cache=shared"
	}
	db := must(repository.Open("sqlite", dsn))
	mustDo(repository.AutoMigrate(db))

	// self-contained cache backend
	mr := must(miniredis.Run())
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	c := cache.NewRedis(client)

	ctx := context.Background()

	productRepo := repository.NewProductRepository(db)
	product := &model.Product{Name: "Bench Widget", Price: 19.90, Stock: STOCK, Purchasable: true}
	mustDo(productRepo.Create(ctx, product))

	settingsSvc := service.NewSettingsService(repository.NewSettingsRepository(db))
	resolver := service.NewCustomerResolver(repository.NewCustomerRepository(db), c, time.Hour, "")
	analyticsSvc := service.NewAnalyticsService(repository.NewOrderRepository(db), repository.NewAnalyticsRepository(db), settingsSvc, c, 5*time.Minute)
	dispatcher := service.NewDispatcher(100000)
	stop := dispatcher.Start(4)
	intake := service.NewIntakeService(db, productRepo, resolver, analyticsSvc, settingsSvc, dispatcher, 10*time.Second)

	fmt.Printf("N=%d, CONC=%d, STOCK=%d\n", N, CONC, STOCK)

	latCh := make(chan time.Duration, N)
	okCh := make(chan bool, N)
	feed := make(chan int, N)
	for i := 0; i < N; i++ {
		feed <- i
	}
	close(feed)

	t0 := time.Now()
	doneCh := make(chan struct{}, CONC)
	for w := 0; w < CONC; w++ {
		go func() {
			for i := range feed {
				// 约 1/4 的请求重复已有手机号，覆盖解析缓存路径
				phone := fmt.Sprintf("+1555%07d", i)
				if i%4 == 3 {
					phone = fmt.Sprintf("+1555%07d", i-1)
				}
				st := time.Now()
				_, ierr := intake.Submit(ctx, service.SubmitInput{Phone: phone, ProductID: product.ID, Quantity: 1})
				latCh <- time.Since(st)
				okCh <- ierr == nil
			}
			doneCh <- struct{}{}
		}()
	}
	for w := 0; w < CONC; w++ {
		<-doneCh
	}
	total := time.Since(t0)
	close(latCh)
	close(okCh)

	lats := make([]time.Duration, 0, N)
	for d := range latCh {
		lats = append(lats, d)
	}
	successes := 0
	for ok := range okCh {
		if ok {
			successes++
		}
	}

	_ = stop(context.Background())

	pct := func(vs []time.Duration, p float64) time.Duration {
		if len(vs) == 0 {
			return 0
		}
		xs := append([]time.Duration(nil), vs...)
		sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
		k := int(math.Ceil(p*float64(len(xs)))) - 1
		if k < 0 {
			k = 0
		}
		if k >= len(xs) {
			k = len(xs) - 1
		}
		return xs[k]
	}

	fmt.Printf("Total: %v, throughput: %.1f/s\n", total, float64(N)/total.Seconds())
	fmt.Printf("Latency p50: %v, p95: %v, p99: %v\n", pct(lats, 0.50), pct(lats, 0.95), pct(lats, 0.99))
	fmt.Printf("Successes: %d / %d\n", successes, N)

	// oversell check: successes must never exceed seeded stock
	final := must(productRepo.GetByID(ctx, product.ID))
	fmt.Printf("Final stock: %d (seeded %d)\n", final.Stock, STOCK)
	if successes > STOCK || final.Stock != STOCK-successes {
		fmt.Println("OVERSELL DETECTED")
		os.Exit(1)
	}
	fmt.Println("stock consistent, no oversell")
}
