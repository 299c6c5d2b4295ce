package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/marketdash/marketdash/model"
	apperrors "github.com/marketdash/marketdash/pkg/errors"
)

// localDataFeed serves fixtures from disk for development and tests.
// Quotes live in <dir>/<SYMBOL>_quote.json, history in <dir>/<SYMBOL>_<range>.json.
type localDataFeed struct {
	dataDir string
}

func NewLocalDataFeed(dataDir string) FeedConsumer {
	if dataDir == "" {
		dataDir = "feed/data"
	}
	return &localDataFeed{dataDir: dataDir}
}

func (s *localDataFeed) ProviderName() string {
	return DataFeedProviderLocal
}

func (s *localDataFeed) FetchQuote(ctx context.Context, symbol string) (*model.StockInfo, error) {
	var info model.StockInfo
	if err := s.readFixture(fmt.Sprintf("%s_quote.json", symbol), symbol, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *localDataFeed) FetchHistory(ctx context.Context, symbol, rng string) (*model.MarketData, error) {
	var data model.MarketData
	if err := s.readFixture(fmt.Sprintf("%s_%s.json", symbol, rng), symbol, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (s *localDataFeed) readFixture(name, symbol string, out interface{}) error {
	fileName := filepath.Join(s.dataDir, name)
	jsonData, err := os.ReadFile(fileName)
	if os.IsNotExist(err) {
		zap.L().Warn("fixture does not exist", zap.String("file", fileName))
		return apperrors.NewAppError(apperrors.ErrCodeNotFound, "symbol not found").WithDetails(symbol)
	}
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrCodeInternal, "error reading fixture").WithCause(err)
	}
	if err := json.Unmarshal(jsonData, out); err != nil {
		zap.L().Error("error parsing fixture", zap.String("file", fileName), zap.Error(err))
		return apperrors.NewAppError(apperrors.ErrCodeInternal, "error parsing fixture").WithCause(err)
	}
	return nil
}
