package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"DOUMonitor/internal/domain"
	"DOUMonitor/internal/ports"
)

// PostgresRepository is the single adapter over the record store: tenant
// reads, match upserts, sync audit rows and the optional notification and
// timeline destinations.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.Directory = (*PostgresRepository)(nil)
var _ ports.MatchStore = (*PostgresRepository)(nil)
var _ ports.SyncLog = (*PostgresRepository)(nil)
var _ ports.NotificationSink = (*PostgresRepository)(nil)
var _ ports.TimelineSink = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// HasTable reports whether a destination table exists in this deployment.
// Optional sinks are probed once at startup instead of sniffing error codes
// on every write.
func (r *PostgresRepository) HasTable(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT to_regclass($1) IS NOT NULL`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("probe table %s: %w", name, err)
	}
	return exists, nil
}

// ListOrganizations returns every tenant known to the store.
func (r *PostgresRepository) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	query, args, err := r.builder.Select("id").From("orgs").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build orgs query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orgs: %w", err)
	}
	defer rows.Close()

	var orgs []domain.Organization
	for rows.Next() {
		var org domain.Organization
		if err := rows.Scan(&org.ID); err != nil {
			return nil, fmt.Errorf("scan org: %w", err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return orgs, nil
}

// ListTrackedTerms loads the active monitored terms of one organization.
func (r *PostgresRepository) ListTrackedTerms(ctx context.Context, orgID string) ([]domain.TrackedTerm, error) {
	query, args, err := r.builder.
		Select("termo", "tipo", "COALESCE(caso_id::text, '')").
		From("dou_termos_monitorados").
		Where(sq.Eq{"org_id": orgID, "ativo": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build terms query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query terms: %w", err)
	}
	defer rows.Close()

	var terms []domain.TrackedTerm
	for rows.Next() {
		var term domain.TrackedTerm
		var kind string
		if err := rows.Scan(&term.Term, &kind, &term.CasoID); err != nil {
			return nil, fmt.Errorf("scan term: %w", err)
		}
		term.Kind = domain.ParseTermKind(kind)
		term.OrgID = orgID
		terms = append(terms, term)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return terms, nil
}

// ListMonitoredCases loads the active cases of one organization that carry a
// case number and opted into gazette monitoring.
func (r *PostgresRepository) ListMonitoredCases(ctx context.Context, orgID string) ([]domain.Caso, error) {
	query, args, err := r.builder.
		Select("id", "numero_processo", "titulo").
		From("casos").
		Where(sq.Eq{"org_id": orgID, "status": "ativo", "monitorar_dou": true}).
		Where("numero_processo IS NOT NULL").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build cases query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	var casos []domain.Caso
	for rows.Next() {
		var caso domain.Caso
		if err := rows.Scan(&caso.ID, &caso.NumeroProc, &caso.Titulo); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		if caso.NumeroProc != "" {
			casos = append(casos, caso)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return casos, nil
}

// SaveMatch upserts a matched publication keyed on (identifica, caso_id).
// A conflicting row no-ops and reports false: the dedup guarantee. The
// conflict target coalesces caso_id so case-less rows (NULL caso_id) dedup
// too; the backing unique index is on (identifica, COALESCE(caso_id::text, '')).
func (r *PostgresRepository) SaveMatch(ctx context.Context, m domain.PersistedMatch) (bool, error) {
	raw, err := json.Marshal(m.Raw)
	if err != nil {
		return false, fmt.Errorf("marshal raw meta: %w", err)
	}

	query, args, err := r.builder.
		Insert("dou_publicacoes").
		Columns(
			"org_id", "caso_id", "secao", "data_publicacao", "titulo",
			"conteudo", "orgao_publicador", "tipo_publicacao", "url_publicacao",
			"identifica", "pagina", "termo_encontrado", "match_type",
			"relevancia", "lida", "notificada", "raw_xml",
		).
		Values(
			m.OrgID, nullable(m.CasoID), m.Section, m.PubDate, m.Title,
			nullable(m.Content), m.Authority, string(m.Type), nullable(m.URL),
			m.Identifica, nullable(m.Page), m.Term, string(m.MatchKind),
			m.Score, m.Read, m.Notified, raw,
		).
		Suffix("ON CONFLICT (identifica, COALESCE(caso_id::text, '')) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build match insert: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("upsert match: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// RecordRun writes the per-organization audit row of one sync invocation.
func (r *PostgresRepository) RecordRun(ctx context.Context, run domain.SyncRun) error {
	status := "sucesso"
	if run.Error != "" {
		status = "erro"
	}

	query, args, err := r.builder.
		Insert("dou_sync_logs").
		Columns(
			"org_id", "data_pesquisa", "termos_pesquisados",
			"publicacoes_encontradas", "status", "erro_mensagem", "duracao_ms",
		).
		Values(
			run.OrgID, run.Date, run.Terms,
			run.Matches, status, nullable(run.Error), run.Duration.Milliseconds(),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build sync log insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert sync log: %w", err)
	}
	return nil
}

// Create writes a tenant notification row.
func (r *PostgresRepository) Create(ctx context.Context, n domain.Notification) error {
	query, args, err := r.builder.
		Insert("notificacoes").
		Columns("org_id", "titulo", "descricao", "prioridade", "tipo", "link_url", "link_label", "caso_id").
		Values(n.OrgID, n.Title, n.Description, n.Priority, n.Type,
			nullable(n.LinkURL), nullable(n.LinkLabel), nullable(n.CasoID)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build notification insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// Append writes a case-timeline event row.
func (r *PostgresRepository) Append(ctx context.Context, e domain.TimelineEvent) error {
	query, args, err := r.builder.
		Insert("timeline_events").
		Columns("caso_id", "titulo", "descricao", "categoria", "canal", "data_evento").
		Values(e.CasoID, e.Title, e.Description, e.Category, e.Channel, e.Date).
		ToSql()
	if err != nil {
		return fmt.Errorf("build timeline insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert timeline event: %w", err)
	}
	return nil
}

// nullable maps empty strings to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
