package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/simaogato/fundlens-backend/internal/adapter/repository/sqlite"
	"github.com/simaogato/fundlens-backend/internal/config"
	"github.com/simaogato/fundlens-backend/internal/domain"
	"github.com/simaogato/fundlens-backend/internal/usecase/currency"
	"github.com/simaogato/fundlens-backend/internal/usecase/ledger"
	"github.com/simaogato/fundlens-backend/internal/usecase/ownership"
	"github.com/simaogato/fundlens-backend/internal/usecase/pnl"
	"github.com/simaogato/fundlens-backend/internal/usecase/valuation"
)

var today = time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

type fixture struct {
	conn      *grpc.ClientConn
	client    *Client
	funds     domain.FundRepository
	positions domain.PositionRepository
	rates     domain.ExchangeRateRepository
}

func setup(t *testing.T, opts ...grpc.ServerOption) *fixture {
	t.Helper()

	db, err := sqlite.NewDB(sqlite.MemoryPath)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { db.Close() })

	log := zerolog.Nop()
	engine := config.DefaultEngine()

	fundRepo := sqlite.NewFundRepository(db)
	positionRepo := sqlite.NewPositionRepository(db)
	rateRepo := sqlite.NewExchangeRateRepository(db)
	contributionRepo := sqlite.NewContributionRepository(db)

	rates := currency.NewRateResolver(rateRepo, engine, log)
	valuationService := valuation.NewValuationService(fundRepo, positionRepo, currency.NewConverter(rates), log)
	engineOwnership := ownership.NewEngine(contributionRepo, valuationService, engine, log)

	server := NewServer(
		pnl.NewPnLService(positionRepo, engine, log),
		valuationService,
		engineOwnership,
		ledger.NewLedgerService(fundRepo, contributionRepo, engineOwnership, log),
		currency.NewBackfillService(fundRepo, positionRepo, rates, engine, log),
	)

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(opts...)
	RegisterValuationServiceServer(s, server)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &fixture{
		conn:      conn,
		client:    NewClient(conn),
		funds:     fundRepo,
		positions: positionRepo,
		rates:     rateRepo,
	}
}

func (f *fixture) fund(t *testing.T, base string) uuid.UUID {
	t.Helper()
	fund := &domain.Fund{ID: uuid.New(), Name: "Family", BaseCurrency: base}
	require.NoError(t, f.funds.Create(context.Background(), fund))
	return fund.ID
}

func (f *fixture) position(t *testing.T, fundID uuid.UUID, ticker string, daysBefore int, price string) {
	t.Helper()
	require.NoError(t, f.positions.Add(context.Background(), &domain.PositionSnapshot{
		ID:         uuid.New(),
		FundID:     fundID,
		Ticker:     ticker,
		Shares:     decimal.NewFromInt(10),
		Price:      decimal.RequireFromString(price),
		CostBasis:  decimal.NewFromInt(1000),
		Currency:   "USD",
		ObservedAt: today.AddDate(0, 0, -daysBefore).Add(16 * time.Hour),
	}))
}

func requireCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "error should be a gRPC status")
	assert.Equal(t, code, st.Code(), st.Message())
}

func TestServer_GetPnL(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	fundID := f.fund(t, "CAD")
	f.position(t, fundID, "AAPL", 1, "110")
	f.position(t, fundID, "AAPL", 0, "120")

	resp, err := f.client.GetPnL(ctx, &GetPnLRequest{FundId: fundID.String(), Ticker: "aapl"})
	require.NoError(t, err)

	report := resp.Report
	assert.Equal(t, "AAPL", report.Ticker)
	assert.Equal(t, "2024-06-14", report.CurrentDate)
	require.NotNil(t, report.DailyPnL)
	assert.Equal(t, "100", *report.DailyPnL)
	require.NotNil(t, report.DailyPrevDate)
	assert.Equal(t, "2024-06-13", *report.DailyPrevDate)
	assert.Nil(t, report.FiveDayPnL, "insufficient history stays null")
	assert.Nil(t, report.FiveDayPeriodDays)
	assert.Equal(t, "200", report.TotalUnrealizedPnL)
}

func TestServer_GetPnLErrors(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	fundID := f.fund(t, "CAD")

	_, err := f.client.GetPnL(ctx, &GetPnLRequest{FundId: "not-a-uuid", Ticker: "AAPL"})
	requireCode(t, err, codes.InvalidArgument)

	_, err = f.client.GetPnL(ctx, &GetPnLRequest{FundId: fundID.String(), Ticker: " "})
	requireCode(t, err, codes.InvalidArgument)

	_, err = f.client.GetPnL(ctx, &GetPnLRequest{FundId: fundID.String(), Ticker: "MSFT"})
	requireCode(t, err, codes.NotFound)
}

func TestServer_ListPnL(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	fundID := f.fund(t, "CAD")
	f.position(t, fundID, "MSFT", 0, "400")
	f.position(t, fundID, "AAPL", 0, "120")

	resp, err := f.client.ListPnL(ctx, &ListPnLRequest{FundId: fundID.String()})
	require.NoError(t, err)
	require.Len(t, resp.Reports, 2)
	assert.Equal(t, "AAPL", resp.Reports[0].Ticker)
	assert.Equal(t, "MSFT", resp.Reports[1].Ticker)
	assert.Nil(t, resp.Reports[0].DailyPnL)
}

func TestServer_GetFundValue(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	fundID := f.fund(t, "CAD")
	f.position(t, fundID, "AAPL", 0, "120")
	require.NoError(t, f.rates.Add(ctx, &domain.ExchangeRateObservation{
		ID: uuid.New(), FromCurrency: "USD", ToCurrency: "CAD",
		Rate: decimal.RequireFromString("1.30"), ObservedAt: today,
	}))

	resp, err := f.client.GetFundValue(ctx, &GetFundValueRequest{FundId: fundID.String()})
	require.NoError(t, err)
	assert.Equal(t, "CAD", resp.Value.BaseCurrency)
	assert.Equal(t, "1560", resp.Value.Total)
	assert.False(t, resp.Value.Estimated)
	require.Len(t, resp.Value.Holdings, 1)
	assert.Equal(t, string(domain.RateSourceExact), resp.Value.Holdings[0].RateSource)

	unset := f.fund(t, "")
	_, err = f.client.GetFundValue(ctx, &GetFundValueRequest{FundId: unset.String()})
	requireCode(t, err, codes.FailedPrecondition)
}

func TestServer_RecordContributionAndOwnership(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	fundID := f.fund(t, "CAD")

	first, err := f.client.RecordContribution(ctx, &RecordContributionRequest{
		FundId: fundID.String(), Contributor: "alice", Amount: "1000",
		RecordedAt: timestamppb.New(today),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ContributionId)
	assert.True(t, first.RecordedAt.AsTime().Equal(today))

	_, err = f.client.RecordContribution(ctx, &RecordContributionRequest{
		FundId: fundID.String(), Contributor: "bob", Amount: "3000", Type: "contribution",
		RecordedAt: timestamppb.New(today.Add(time.Hour)),
	})
	require.NoError(t, err)

	resp, err := f.client.GetOwnership(ctx, &GetOwnershipRequest{FundId: fundID.String()})
	require.NoError(t, err)
	require.Len(t, resp.Stakes, 2)
	assert.Equal(t, "alice", resp.Stakes[0].Contributor)
	assert.Equal(t, "25.0000", resp.Stakes[0].PctOfFund)
	assert.Equal(t, "1000.00", resp.Stakes[0].Value)
	assert.Equal(t, "75.0000", resp.Stakes[1].PctOfFund)

	_, err = f.client.RecordContribution(ctx, &RecordContributionRequest{
		FundId: fundID.String(), Contributor: "bob", Amount: "3000", Type: "WITHDRAWAL",
		RecordedAt: timestamppb.New(today.Add(2 * time.Hour)),
	})
	require.NoError(t, err)

	resp, err = f.client.GetOwnership(ctx, &GetOwnershipRequest{FundId: fundID.String()})
	require.NoError(t, err)
	require.Len(t, resp.Stakes, 1)
	assert.Equal(t, "100.0000", resp.Stakes[0].PctOfFund)
}

func TestServer_RecordContributionErrors(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	fundID := f.fund(t, "CAD")

	_, err := f.client.RecordContribution(ctx, &RecordContributionRequest{FundId: fundID.String(), Contributor: "alice", Amount: "abc"})
	requireCode(t, err, codes.InvalidArgument)

	_, err = f.client.RecordContribution(ctx, &RecordContributionRequest{FundId: fundID.String(), Contributor: "alice", Amount: "-5"})
	requireCode(t, err, codes.InvalidArgument)

	_, err = f.client.RecordContribution(ctx, &RecordContributionRequest{FundId: fundID.String(), Contributor: "alice", Amount: "5", Type: "GIFT"})
	requireCode(t, err, codes.InvalidArgument)

	_, err = f.client.RecordContribution(ctx, &RecordContributionRequest{FundId: uuid.NewString(), Contributor: "alice", Amount: "5"})
	requireCode(t, err, codes.NotFound)
}

func TestServer_Backfill(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	cad := f.fund(t, "CAD")
	usd := f.fund(t, "USD")
	f.position(t, cad, "AAPL", 1, "110")
	f.position(t, cad, "AAPL", 0, "120")
	f.position(t, usd, "AAPL", 0, "120")

	resp, err := f.client.Backfill(ctx, &BackfillRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Updated[cad.String()])
	assert.Equal(t, int64(1), resp.Updated[usd.String()])

	resp, err = f.client.Backfill(ctx, &BackfillRequest{FundIds: []string{cad.String()}})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{cad.String(): 0}, resp.Updated)

	unset := f.fund(t, "")
	_, err = f.client.Backfill(ctx, &BackfillRequest{FundIds: []string{unset.String()}})
	requireCode(t, err, codes.FailedPrecondition)
}

func TestServer_RequiresToken(t *testing.T) {
	f := setup(t, grpc.ChainUnaryInterceptor(LoggingInterceptor(zerolog.Nop()), AuthInterceptor("secret")))
	fundID := f.fund(t, "CAD")
	f.position(t, fundID, "AAPL", 0, "120")

	_, err := f.client.ListPnL(context.Background(), &ListPnLRequest{FundId: fundID.String()})
	requireCode(t, err, codes.Unauthenticated)

	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer secret")
	resp, err := f.client.ListPnL(ctx, &ListPnLRequest{FundId: fundID.String()})
	require.NoError(t, err)
	assert.Len(t, resp.Reports, 1)
}

func TestServer_RequiresJSONContentSubtype(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	req := &GetOwnershipRequest{FundId: f.fund(t, "CAD").String()}

	err := f.conn.Invoke(ctx, GetOwnershipFullMethod, req, new(GetOwnershipResponse))
	requireCode(t, err, codes.Internal)

	resp := new(GetOwnershipResponse)
	require.NoError(t, f.conn.Invoke(ctx, GetOwnershipFullMethod, req, resp, grpc.CallContentSubtype(CodecName)))
	assert.Empty(t, resp.Stakes)
}
