package transactions

import (
	"context"
	"sort"

	"roomstay/internal/app/dto"
	handlersupport "roomstay/internal/app/handlers/support"
	"roomstay/internal/app/queries"
	"roomstay/internal/app/uow"
	"roomstay/internal/domain/auth"
)

const listUserTransactionsKey = "transaction.list_user"

type ListUserTransactionsQuery struct {
	Principal auth.Principal
}

func (q ListUserTransactionsQuery) Key() string           { return listUserTransactionsKey }
func (q ListUserTransactionsQuery) Actor() auth.Principal { return q.Principal }
func (q ListUserTransactionsQuery) Action() auth.Action   { return auth.ActionViewBookings }

type ListUserTransactionsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListUserTransactionsHandler) Handle(ctx context.Context, q ListUserTransactionsQuery) (dto.TransactionCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.TransactionCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	txs, err := unit.Transactions().ListByUser(execCtx, q.Principal.ID)
	if err != nil {
		return dto.TransactionCollection{}, err
	}
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
	items := make([]dto.Transaction, 0, len(txs))
	for _, tx := range txs {
		items = append(items, dto.MapTransaction(tx))
	}
	return dto.TransactionCollection{Items: items}, nil
}

var _ queries.Handler[ListUserTransactionsQuery, dto.TransactionCollection] = (*ListUserTransactionsHandler)(nil)
