// Package fixtures generates synthetic platform and provider datasets that
// share a known set of tracking codes. Tests use it for property checks and
// the testdata generator writes its output to CSV.
package fixtures

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"tracking-reconciliation-service/internal/dataset"
)

// Gateways are the gateway names generated platform rows are spread over.
var Gateways = []string{"Payman", "jibitcobank", "ezpay", "toman", "vandar", "jibit"}

// PlatformColumns is the header of generated platform datasets.
var PlatformColumns = []string{"id", "gateway", "gateway_tracking_code", "gateway_identifier", "meta_data_1", "amount", "merchant", "created_at"}

// ProviderColumns is the header of generated provider datasets.
var ProviderColumns = []string{"date", "amount", "description", "reference", "status"}

// Options configures a Generator
type Options struct {
	Seed         int64
	PlatformRows int
	// ProviderExtra is the number of provider rows unrelated to any platform row.
	ProviderExtra int
	// MatchRatio is the share of platform rows that get a provider counterpart.
	MatchRatio float64
	// Persian adds Persian descriptions with Arabic look-alike letters.
	Persian bool
}

// DefaultOptions returns a small, mostly-matching pair
func DefaultOptions() Options {
	return Options{
		Seed:          42,
		PlatformRows:  50,
		ProviderExtra: 10,
		MatchRatio:    0.8,
	}
}

// Pair is one generated platform/provider couple.
type Pair struct {
	Platform *dataset.Dataset
	Provider *dataset.Dataset
	// Shared lists the codes that occur on both sides, in platform order.
	Shared []string
	// Rows holds the raw string rows for writing to disk.
	PlatformRows [][]string
	ProviderRows [][]string
}

// Generator produces reproducible datasets from a seed.
type Generator struct {
	opts  Options
	faker *gofakeit.Faker
}

// NewGenerator creates a generator. Equal options give equal output.
func NewGenerator(opts Options) *Generator {
	return &Generator{opts: opts, faker: gofakeit.New(opts.Seed)}
}

// Code returns one tracking code in one of the shapes seen in real exports.
func (g *Generator) Code() string {
	switch g.faker.Number(0, 4) {
	case 0:
		return g.faker.Numerify("##########")
	case 1:
		return "TRK" + g.faker.Numerify("########")
	case 2:
		return "TR-" + g.faker.Numerify("#######")
	case 3:
		return strings.ToUpper(g.faker.Lexify("??")) + g.faker.Numerify("##########")
	default:
		return g.faker.UUID()
	}
}

// Generate builds the pair.
func (g *Generator) Generate() Pair {
	var pair Pair
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, 0)

	for i := 0; i < g.opts.PlatformRows; i++ {
		code := g.Code()
		amount := decimal.NewFromFloat(g.faker.Price(1000, 5000000)).Round(0)
		created := g.faker.DateRange(start, end)

		row := []string{
			fmt.Sprintf("%d", i+1),
			g.faker.RandomString(Gateways),
			code,
			g.faker.Numerify("ID-####"),
			g.faker.Sentence(3),
			amount.String(),
			g.faker.Company(),
			created.Format(time.RFC3339),
		}
		pair.PlatformRows = append(pair.PlatformRows, row)

		if g.faker.Float64Range(0, 1) < g.opts.MatchRatio {
			pair.Shared = append(pair.Shared, code)
			pair.ProviderRows = append(pair.ProviderRows, []string{
				created.Format("2006-01-02"),
				amount.String(),
				g.description(code),
				g.faker.Numerify("REF-####"),
				"settled",
			})
		}
	}

	for i := 0; i < g.opts.ProviderExtra; i++ {
		pair.ProviderRows = append(pair.ProviderRows, []string{
			g.faker.DateRange(start, end).Format("2006-01-02"),
			decimal.NewFromFloat(g.faker.Price(1000, 5000000)).Round(0).String(),
			g.description(g.Code()),
			g.faker.Numerify("REF-####"),
			g.faker.RandomString([]string{"settled", "failed", "pending"}),
		})
	}

	g.faker.ShuffleAnySlice(pair.ProviderRows)

	pair.Platform = dataset.New("platform", PlatformColumns, toValues(pair.PlatformRows))
	pair.Provider = dataset.New("provider", ProviderColumns, toValues(pair.ProviderRows))
	return pair
}

func (g *Generator) description(code string) string {
	if g.opts.Persian && g.faker.Bool() {
		// Arabic yeh and kaf, folded by extraction.
		return fmt.Sprintf("\u0648\u0627\u0631\u064a\u0632 \u0643\u062f %s", code)
	}
	return fmt.Sprintf("payment ref:%s %s", code, g.faker.RandomString([]string{"settled", "ok", "done"}))
}

func toValues(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		values := make([]any, len(r))
		for j, v := range r {
			values[j] = v
		}
		out[i] = values
	}
	return out
}
