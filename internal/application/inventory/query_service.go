package inventory

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/access"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// Límites de paginación del historial.
const (
	DefaultMovementLimit = 100
	MaxMovementLimit     = 500
)

// QueryService lecturas sobre productos y ledger. Las listas usan los repos del pool;
// Reconcile abre su propia transacción para leer cantidad y ledger del mismo instante.
type QueryService struct {
	txRunner  TxRunner
	itemRepo  repository.ItemRepository
	movRepo   repository.MovementRepository
	generator ReportGenerator
	tracer    trace.Tracer
	now       func() time.Time
}

// NewQueryService construye el caso de uso de consultas. generator puede ser nil si no se exporta PDF.
func NewQueryService(txRunner TxRunner, itemRepo repository.ItemRepository, movRepo repository.MovementRepository, generator ReportGenerator) *QueryService {
	return &QueryService{
		txRunner:  txRunner,
		itemRepo:  itemRepo,
		movRepo:   movRepo,
		generator: generator,
		tracer:    tracer(),
		now:       time.Now,
	}
}

// MovementQuery filtros del historial tal como llegan del caller.
// Kind no reconocido se ignora (equivale a sin filtro).
type MovementQuery struct {
	Kind   string
	ItemID string
	Limit  int
	Offset int
}

// Reconciliation compara la cantidad guardada con el saldo recalculado desde el ledger.
type Reconciliation struct {
	ItemID        string
	Quantity      int64
	Inbound       int64
	Outbound      int64
	Movements     int64
	LedgerBalance int64
	Balanced      bool
}

// ListItems lista todos los productos, opcionalmente filtrados por estatus.
func (s *QueryService) ListItems(ctx context.Context, actor entity.Actor, filter repository.ItemFilter) (list []*entity.Item, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.ListItems")
	defer func() { endSpan(span, err) }()

	if err := authorize(actor, access.OpViewItems); err != nil {
		return nil, err
	}
	list, err = s.itemRepo.List(ctx, filter)
	if err != nil {
		return nil, domain.Classify(err)
	}
	if list == nil {
		list = []*entity.Item{}
	}
	return list, nil
}

// GetItem obtiene un producto (activo o inactivo).
func (s *QueryService) GetItem(ctx context.Context, actor entity.Actor, id string) (item *entity.Item, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.GetItem", trace.WithAttributes(attribute.String("inventory.item_id", id)))
	defer func() { endSpan(span, err) }()

	if err := authorize(actor, access.OpViewItems); err != nil {
		return nil, err
	}
	item, err = s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Classify(err)
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

// ListMovements historial de movimientos, más recientes primero.
func (s *QueryService) ListMovements(ctx context.Context, actor entity.Actor, q MovementQuery) (list []*entity.MovementView, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.ListMovements", trace.WithAttributes(attribute.String("inventory.kind_filter", q.Kind)))
	defer func() { endSpan(span, err) }()

	if err := authorize(actor, access.OpViewMovementHistory); err != nil {
		return nil, err
	}
	list, err = s.movRepo.List(ctx, toMovementFilter(q))
	if err != nil {
		return nil, domain.Classify(err)
	}
	if list == nil {
		list = []*entity.MovementView{}
	}
	return list, nil
}

// MovementReport genera el PDF del historial con los mismos filtros de ListMovements.
func (s *QueryService) MovementReport(ctx context.Context, actor entity.Actor, q MovementQuery) (pdf []byte, filename string, err error) {
	if s.generator == nil {
		return nil, "", fmt.Errorf("%w: generador de reportes no configurado", domain.ErrUnavailable)
	}
	if q.Limit <= 0 {
		q.Limit = MaxMovementLimit
	}
	list, err := s.ListMovements(ctx, actor, q)
	if err != nil {
		return nil, "", err
	}
	now := s.now()
	pdf, err = s.generator.GenerateMovementReport(ctx, list, now)
	if err != nil {
		return nil, "", fmt.Errorf("%w: generar reporte: %w", domain.ErrUnavailable, err)
	}
	return pdf, fmt.Sprintf("historial-movimientos-%s.pdf", now.Format("20060102-150405")), nil
}

// Reconcile recalcula Σ entradas − Σ salidas del producto y lo compara con su cantidad.
// La fila se bloquea antes de sumar el ledger: ninguna mutación del producto puede confirmarse entre ambas lecturas.
func (s *QueryService) Reconcile(ctx context.Context, actor entity.Actor, id string) (rec *Reconciliation, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.Reconcile", trace.WithAttributes(attribute.String("inventory.item_id", id)))
	defer func() { endSpan(span, err) }()

	if err := authorize(actor, access.OpViewItems); err != nil {
		return nil, err
	}
	err = s.txRunner.Run(ctx, func(itemRepo repository.ItemRepository, movRepo repository.MovementRepository) error {
		item, err := itemRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		totals, err := movRepo.Totals(ctx, id)
		if err != nil {
			return err
		}
		rec = &Reconciliation{
			ItemID:        item.ID,
			Quantity:      item.Quantity,
			Inbound:       totals.Inbound,
			Outbound:      totals.Outbound,
			Movements:     totals.Count,
			LedgerBalance: totals.Balance(),
			Balanced:      totals.Balance() == item.Quantity,
		}
		return nil
	})
	if err != nil {
		return nil, domain.Classify(err)
	}
	return rec, nil
}

func toMovementFilter(q MovementQuery) repository.MovementFilter {
	f := repository.MovementFilter{ItemID: q.ItemID, Limit: q.Limit, Offset: q.Offset}
	if kind, ok := entity.ParseMovementKind(q.Kind); ok {
		f.Kind = kind
	}
	if f.Limit <= 0 {
		f.Limit = DefaultMovementLimit
	}
	if f.Limit > MaxMovementLimit {
		f.Limit = MaxMovementLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
