package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"fjacquet/ledger-import/internal/logging"
	"fjacquet/ledger-import/internal/models"
)

// GeminiClassifier suggests transaction categories through the Google Gemini
// API. One prompt covers the whole batch to stay inside rate limits.
type GeminiClassifier struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger logging.Logger
}

// NewGeminiClassifier creates a classifier backed by the given model name.
func NewGeminiClassifier(ctx context.Context, apiKey, modelName string, logger logging.Logger) (*GeminiClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClassifier{
		client: client,
		model:  client.GenerativeModel(modelName),
		logger: logger,
	}, nil
}

// Close releases the underlying API client.
func (c *GeminiClassifier) Close() error {
	return c.client.Close()
}

// Classify implements Classifier.
func (c *GeminiClassifier) Classify(ctx context.Context, txs []models.Transaction) ([]Classification, error) {
	if len(txs) == 0 {
		return nil, nil
	}

	prompt := buildPrompt(txs)
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from Gemini API")
	}

	responseText := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	classifications := parseResponse(responseText, txs)

	c.logger.Info("Classified transactions",
		logging.Field{Key: logging.FieldCount, Value: len(classifications)})
	return classifications, nil
}

func buildPrompt(txs []models.Transaction) string {
	var b strings.Builder
	b.WriteString("You are a personal finance assistant. Assign each bank transaction below ")
	b.WriteString("to a single spending category (e.g. Groceries, Transport, Dining, Salary, ")
	b.WriteString("Utilities, Shopping, Health, Travel, Other).\n\n")
	b.WriteString("Transactions (index. date amount description):\n")
	for i, tx := range txs {
		fmt.Fprintf(&b, "%d. %s %s %s\n", i+1, tx.Date, models.FormatMinorUnits(tx.AmountMinor), tx.Description)
	}
	b.WriteString("\nRespond with one line per transaction in this exact format:\n")
	b.WriteString("<index>: <category>\n")
	return b.String()
}

// parseResponse reads "<index>: <category>" lines, ignoring anything that
// does not match. Confidence is fixed; the model gives no usable score.
func parseResponse(response string, txs []models.Transaction) []Classification {
	var out []Classification
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		idx, category, ok := splitIndexedLine(line)
		if !ok || idx < 1 || idx > len(txs) {
			continue
		}
		out = append(out, Classification{
			TransactionID: txs[idx-1].ID,
			Category:      category,
			Confidence:    0.7,
		})
	}
	return out
}

func splitIndexedLine(line string) (int, string, bool) {
	colon := strings.Index(line, ":")
	if colon <= 0 {
		return 0, "", false
	}
	var idx int
	if _, err := fmt.Sscanf(line[:colon], "%d", &idx); err != nil {
		return 0, "", false
	}
	category := strings.TrimSpace(line[colon+1:])
	if category == "" {
		return 0, "", false
	}
	return idx, category, true
}
