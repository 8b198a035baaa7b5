package grpc

import (
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/simaogato/fundlens-backend/internal/adapter/view"
)

type GetPnLRequest struct {
	FundId string `json:"fund_id"`
	Ticker string `json:"ticker"`
}

type GetPnLResponse struct {
	Report *view.PnLReport `json:"report"`
}

type ListPnLRequest struct {
	FundId string `json:"fund_id"`
}

type ListPnLResponse struct {
	Reports []*view.PnLReport `json:"reports"`
}

type GetFundValueRequest struct {
	FundId string `json:"fund_id"`
}

type GetFundValueResponse struct {
	Value *view.FundValue `json:"value"`
}

type GetOwnershipRequest struct {
	FundId string `json:"fund_id"`
}

type GetOwnershipResponse struct {
	Stakes []*view.Stake `json:"stakes"`
}

// RecordContributionRequest appends a ledger entry
// Type is CONTRIBUTION or WITHDRAWAL; a nil RecordedAt means now
type RecordContributionRequest struct {
	FundId      string                 `json:"fund_id"`
	Contributor string                 `json:"contributor"`
	Amount      string                 `json:"amount"`
	Type        string                 `json:"type"`
	RecordedAt  *timestamppb.Timestamp `json:"recorded_at,omitempty"`
}

type RecordContributionResponse struct {
	ContributionId string                 `json:"contribution_id"`
	RecordedAt     *timestamppb.Timestamp `json:"recorded_at"`
}

// BackfillRequest lists the funds to convert; empty means every fund
type BackfillRequest struct {
	FundIds []string `json:"fund_ids"`
}

type BackfillResponse struct {
	Updated map[string]int64 `json:"updated"`
}
