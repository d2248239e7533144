package lifecycle

import (
	"context"

	"tendermgmt/db"
)

// Storage — контракт хранилища для менеджеров жизненного цикла и
// HTTP-слоя. Реализуется db.Storage; в тестах подменяется моком.
type Storage interface {
	CreateVendor(ctx context.Context, v *db.Vendor) error
	GetVendor(ctx context.Context, id int) (*db.Vendor, error)
	GetVendorByEmail(ctx context.Context, email string) (*db.Vendor, error)
	ListVendors(ctx context.Context) ([]db.Vendor, error)
	DeleteVendorByEmail(ctx context.Context, email string) error

	CreateOrganisation(ctx context.Context, o *db.Organisation) error
	GetOrganisation(ctx context.Context, id int) (*db.Organisation, error)
	GetOrganisationByEmail(ctx context.Context, email string) (*db.Organisation, error)

	CreateTender(ctx context.Context, t *db.Tender) error
	GetTender(ctx context.Context, id int) (*db.Tender, error)
	GetTenderByRef(ctx context.Context, ref string) (*db.Tender, error)
	TenderRefExists(ctx context.Context, ref string) (bool, error)
	UpdateTenderField(ctx context.Context, tenderID int, column, value string) error
	DeleteTender(ctx context.Context, id int) error
	ListTenders(ctx context.Context) ([]db.Tender, error)
	ListTendersForOrg(ctx context.Context, orgID int) ([]db.Tender, error)
	ListOpenTenders(ctx context.Context) ([]db.Tender, error)
	WithdrawTender(ctx context.Context, tenderID int) error

	CreateBid(ctx context.Context, b *db.Bid) error
	GetBid(ctx context.Context, vendorID, tenderID int) (*db.Bid, error)
	UpdateBidSpecs(ctx context.Context, vendorID, tenderID int, techSpec, finSpec string) error
	DeleteSubmittedBid(ctx context.Context, vendorID, tenderID int) (int64, error)
	UpdateBidScores(ctx context.Context, vendorID, tenderID int, techScore, finScore, finalScore float64, remarks string) error
	ListBidsForTender(ctx context.Context, tenderID int) ([]db.Bid, error)
	ListBidsForVendor(ctx context.Context, vendorID int) ([]db.Bid, error)
	CountBids(ctx context.Context, tenderID int) (int, error)
	CountUnscoredBids(ctx context.Context, tenderID int) (int, error)
	AwardTender(ctx context.Context, tenderID, winnerVendorID int) error
	ListLogsForTender(ctx context.Context, tenderID int) ([]db.BidLog, error)
	ListLogsForVendor(ctx context.Context, vendorID int) ([]db.BidLog, error)

	CreateNotification(ctx context.Context, n *db.Notification) error
	ListNotificationsForVendor(ctx context.Context, vendorID int) ([]db.Notification, error)
	CountUnreadNotifications(ctx context.Context, vendorID int) (int, error)
	MarkAllNotificationsRead(ctx context.Context, vendorID int) error
	MarkNotificationsRead(ctx context.Context, ids []int) error
}
