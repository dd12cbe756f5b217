package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Result 记录单次请求的 HTTP 结果，便于聚合统计。
type Result struct {
	Status int
	Body   string
	Err    error
}

func main() {
	baseURL := flag.String("base", "http://localhost:8080", "server base url")
	productID := flag.String("product", "", "product business id (product_id)")
	numericID := flag.Uint("id", 0, "product numeric id, for stock check after test")

	// 超卖测试参数：N 个买家并发抢同一件商品
	nBuyers := flag.Int("buyers", 200, "distinct buyers")
	concurrency := flag.Int("c", 50, "max concurrency")
	stockCheck := flag.Bool("stock", true, "check product stock after test")
	flag.Parse()

	if *productID == "" {
		panic("missing -product")
	}

	client := &http.Client{Timeout: 5 * time.Second}

	fmt.Printf("start oversell test: product=%s buyers=%d concurrency=%d\n", *productID, *nBuyers, *concurrency)
	results := runBuy(client, *baseURL, *productID, *nBuyers, *concurrency)
	printSummary("oversell", results)

	if *stockCheck && *numericID > 0 {
		stock, status, err := getProduct(client, *baseURL, *numericID)
		if err != nil {
			fmt.Printf("stock check failed: %v\n", err)
			return
		}
		fmt.Printf("stock after test: %d (status=%s)\n", stock, status)
		if stock < 0 {
			fmt.Println("OVERSOLD: stock went negative")
		}
	}
}

func runBuy(client *http.Client, baseURL, productID string, n, concurrency int) []Result {
	type buyerInfo struct {
		Email string `json:"email"`
	}
	type req struct {
		ProductID string    `json:"product_id"`
		Quantity  int       `json:"quantity"`
		Buyer     buyerInfo `json:"buyer_info"`
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	results := make([]Result, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			// 每个买家独立邮箱，避免触发按邮箱的限流
			r := req{
				ProductID: productID,
				Quantity:  1,
				Buyer:     buyerInfo{Email: fmt.Sprintf("buyer%d@loadtest.local", idx)},
			}
			results[idx] = buyOnce(client, baseURL, r)
		}(i)
	}

	wg.Wait()
	return results
}

func buyOnce(client *http.Client, baseURL string, req any) Result {
	b, _ := json.Marshal(req)
	url := fmt.Sprintf("%s/api/orders", baseURL)
	httpReq, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return Result{Status: resp.StatusCode, Body: string(body)}
}

// printSummary 聚合输出不同状态码分布。
func printSummary(name string, results []Result) {
	count := map[int]int{}
	errCount := 0
	for _, r := range results {
		if r.Err != nil {
			errCount++
			continue
		}
		count[r.Status]++
	}
	fmt.Printf("[%s] http status summary:\n", name)
	for _, code := range []int{201, 400, 404, 409, 429, 500} {
		if count[code] > 0 {
			fmt.Printf("  %d -> %d\n", code, count[code])
		}
	}
	if errCount > 0 {
		fmt.Printf("  errors -> %d\n", errCount)
	}
}

// getProduct 查询商品当前库存，用于压测后校验是否出现超卖。
func getProduct(client *http.Client, baseURL string, id uint) (int64, string, error) {
	url := fmt.Sprintf("%s/api/products/%d", baseURL, id)
	resp, err := client.Get(url)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return 0, "", fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b))
	}

	var out struct {
		Code int `json:"code"`
		Data struct {
			Stock  int64  `json:"stock"`
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return 0, "", err
	}
	return out.Data.Stock, out.Data.Status, nil
}
