package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database. A single write connection serializes
// writers; SQLite handles concurrent readers on its own.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at dbPath and ensures
// the schema exists.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS legislators (
			bioguide_id    TEXT PRIMARY KEY,
			first_name     TEXT NOT NULL DEFAULT '',
			last_name      TEXT NOT NULL DEFAULT '',
			full_name      TEXT NOT NULL DEFAULT '',
			party          TEXT NOT NULL DEFAULT '',
			state          TEXT NOT NULL DEFAULT '',
			district       TEXT NOT NULL DEFAULT '',
			chamber        TEXT NOT NULL DEFAULT '',
			image_url      TEXT NOT NULL DEFAULT '',
			url            TEXT NOT NULL DEFAULT '',
			office_address TEXT NOT NULL DEFAULT '',
			phone          TEXT NOT NULL DEFAULT '',
			cached_at      TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS bills (
			member_bioguide_id TEXT NOT NULL,
			congress           INTEGER NOT NULL,
			bill_type          TEXT NOT NULL,
			bill_number        TEXT NOT NULL,
			title              TEXT NOT NULL DEFAULT '',
			introduced_date    TEXT NOT NULL DEFAULT '',
			latest_action_date TEXT NOT NULL DEFAULT '',
			latest_action_text TEXT NOT NULL DEFAULT '',
			policy_area        TEXT NOT NULL DEFAULT '',
			url                TEXT NOT NULL DEFAULT '',
			is_cosponsored     INTEGER NOT NULL DEFAULT 0,
			cached_at          TIMESTAMP,
			PRIMARY KEY (member_bioguide_id, congress, bill_type, bill_number)
		);
		CREATE INDEX IF NOT EXISTS idx_bills_member ON bills(member_bioguide_id);

		CREATE TABLE IF NOT EXISTS campaign_finances (
			bioguide_id              TEXT PRIMARY KEY,
			fec_candidate_id         TEXT NOT NULL DEFAULT '',
			committee_id             TEXT NOT NULL DEFAULT '',
			cycle                    INTEGER NOT NULL DEFAULT 0,
			total_receipts           REAL NOT NULL DEFAULT 0,
			total_disbursements      REAL NOT NULL DEFAULT 0,
			cash_on_hand             REAL NOT NULL DEFAULT 0,
			debt                     REAL NOT NULL DEFAULT 0,
			individual_contributions REAL NOT NULL DEFAULT 0,
			pac_contributions        REAL NOT NULL DEFAULT 0,
			party_contributions      REAL NOT NULL DEFAULT 0,
			cached_at                TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS expenditures (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			bioguide_id TEXT NOT NULL,
			payee_name  TEXT NOT NULL DEFAULT '',
			purpose     TEXT NOT NULL DEFAULT '',
			amount      REAL NOT NULL DEFAULT 0,
			date        TEXT NOT NULL DEFAULT '',
			category    TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_expenditures_bioguide ON expenditures(bioguide_id);

		CREATE TABLE IF NOT EXISTS news_articles (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			bioguide_id  TEXT NOT NULL,
			title        TEXT NOT NULL DEFAULT '',
			description  TEXT NOT NULL DEFAULT '',
			url          TEXT NOT NULL DEFAULT '',
			source_name  TEXT NOT NULL DEFAULT '',
			author       TEXT NOT NULL DEFAULT '',
			image_url    TEXT NOT NULL DEFAULT '',
			published_at TIMESTAMP,
			cached_at    TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_news_bioguide ON news_articles(bioguide_id);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// GetLegislator returns the legislator record, or nil when absent.
func (s *Store) GetLegislator(ctx context.Context, bioguideID string) (*Legislator, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT bioguide_id, first_name, last_name, full_name, party, state,
		       district, chamber, image_url, url, office_address, phone, cached_at
		FROM legislators WHERE bioguide_id = ?`, bioguideID)

	var l Legislator
	var cachedAt sql.NullTime
	err := row.Scan(&l.BioguideID, &l.FirstName, &l.LastName, &l.FullName,
		&l.Party, &l.State, &l.District, &l.Chamber, &l.ImageURL, &l.URL,
		&l.OfficeAddress, &l.Phone, &cachedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying legislator: %w", err)
	}
	if cachedAt.Valid {
		t := cachedAt.Time
		l.CachedAt = &t
	}
	return &l, nil
}

// ListLegislators returns all cached legislator records, for offline
// search.
func (s *Store) ListLegislators(ctx context.Context) ([]Legislator, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bioguide_id, first_name, last_name, full_name, party, state,
		       district, chamber, image_url, url, office_address, phone, cached_at
		FROM legislators ORDER BY last_name, first_name`)
	if err != nil {
		return nil, fmt.Errorf("querying legislators: %w", err)
	}
	defer rows.Close()

	var out []Legislator
	for rows.Next() {
		var l Legislator
		var cachedAt sql.NullTime
		if err := rows.Scan(&l.BioguideID, &l.FirstName, &l.LastName, &l.FullName,
			&l.Party, &l.State, &l.District, &l.Chamber, &l.ImageURL, &l.URL,
			&l.OfficeAddress, &l.Phone, &cachedAt); err != nil {
			return nil, fmt.Errorf("scanning legislator: %w", err)
		}
		if cachedAt.Valid {
			t := cachedAt.Time
			l.CachedAt = &t
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpsertLegislator inserts or updates the record and stamps cached_at.
func (s *Store) UpsertLegislator(ctx context.Context, l *Legislator) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO legislators (bioguide_id, first_name, last_name, full_name,
			party, state, district, chamber, image_url, url, office_address, phone, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(bioguide_id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			full_name = excluded.full_name,
			party = excluded.party,
			state = excluded.state,
			district = excluded.district,
			chamber = excluded.chamber,
			image_url = excluded.image_url,
			url = excluded.url,
			office_address = excluded.office_address,
			phone = excluded.phone,
			cached_at = excluded.cached_at`,
		l.BioguideID, l.FirstName, l.LastName, l.FullName, l.Party, l.State,
		l.District, l.Chamber, l.ImageURL, l.URL, l.OfficeAddress, l.Phone, now)
	if err != nil {
		return fmt.Errorf("upserting legislator: %w", err)
	}
	l.CachedAt = &now
	return nil
}

// ClearLegislatorCachedAt invalidates the member record without deleting
// it. Idempotent.
func (s *Store) ClearLegislatorCachedAt(ctx context.Context, bioguideID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE legislators SET cached_at = NULL WHERE bioguide_id = ?`, bioguideID)
	if err != nil {
		return fmt.Errorf("clearing legislator cached_at: %w", err)
	}
	return nil
}

// ListBillsByMember returns the cached bills for a member, newest
// action first. Rows are scoped per member, so the same bill can be
// cached under its sponsor and again under each cosponsor.
func (s *Store) ListBillsByMember(ctx context.Context, bioguideID string) ([]Bill, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT member_bioguide_id, congress, bill_type, bill_number, title,
		       introduced_date, latest_action_date, latest_action_text,
		       policy_area, url, is_cosponsored, cached_at
		FROM bills WHERE member_bioguide_id = ?
		ORDER BY latest_action_date DESC`, bioguideID)
	if err != nil {
		return nil, fmt.Errorf("querying bills: %w", err)
	}
	defer rows.Close()

	var out []Bill
	for rows.Next() {
		var b Bill
		var cachedAt sql.NullTime
		if err := rows.Scan(&b.MemberBioguideID, &b.Congress, &b.BillType, &b.BillNumber,
			&b.Title, &b.IntroducedDate, &b.LatestActionDate, &b.LatestActionText,
			&b.PolicyArea, &b.URL, &b.IsCosponsored, &cachedAt); err != nil {
			return nil, fmt.Errorf("scanning bill: %w", err)
		}
		if cachedAt.Valid {
			t := cachedAt.Time
			b.CachedAt = &t
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpsertBill inserts or updates a bill under its member's cache scope,
// keyed by (member, congress, type, number), and stamps cached_at.
func (s *Store) UpsertBill(ctx context.Context, b *Bill) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bills (member_bioguide_id, congress, bill_type, bill_number,
			title, introduced_date, latest_action_date, latest_action_text,
			policy_area, url, is_cosponsored, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(member_bioguide_id, congress, bill_type, bill_number) DO UPDATE SET
			title = excluded.title,
			latest_action_date = excluded.latest_action_date,
			latest_action_text = excluded.latest_action_text,
			is_cosponsored = excluded.is_cosponsored,
			cached_at = excluded.cached_at`,
		b.MemberBioguideID, b.Congress, b.BillType, b.BillNumber,
		b.Title, b.IntroducedDate, b.LatestActionDate, b.LatestActionText,
		b.PolicyArea, b.URL, b.IsCosponsored, now)
	if err != nil {
		return fmt.Errorf("upserting bill: %w", err)
	}
	b.CachedAt = &now
	return nil
}

// DeleteBillsByMember removes all cached bills for a member.
// Idempotent.
func (s *Store) DeleteBillsByMember(ctx context.Context, bioguideID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM bills WHERE member_bioguide_id = ?`, bioguideID)
	if err != nil {
		return fmt.Errorf("deleting bills: %w", err)
	}
	return nil
}

// GetFinance returns the finance summary, or nil when absent.
func (s *Store) GetFinance(ctx context.Context, bioguideID string) (*CampaignFinance, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT bioguide_id, fec_candidate_id, committee_id, cycle,
		       total_receipts, total_disbursements, cash_on_hand, debt,
		       individual_contributions, pac_contributions, party_contributions, cached_at
		FROM campaign_finances WHERE bioguide_id = ?`, bioguideID)

	var f CampaignFinance
	var cachedAt sql.NullTime
	err := row.Scan(&f.BioguideID, &f.FECCandidateID, &f.CommitteeID, &f.Cycle,
		&f.TotalReceipts, &f.TotalDisbursements, &f.CashOnHand, &f.Debt,
		&f.IndividualContributions, &f.PACContributions, &f.PartyContributions, &cachedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying finance: %w", err)
	}
	if cachedAt.Valid {
		t := cachedAt.Time
		f.CachedAt = &t
	}
	return &f, nil
}

// UpsertFinance inserts or updates the finance summary and stamps
// cached_at.
func (s *Store) UpsertFinance(ctx context.Context, f *CampaignFinance) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO campaign_finances (bioguide_id, fec_candidate_id, committee_id,
			cycle, total_receipts, total_disbursements, cash_on_hand, debt,
			individual_contributions, pac_contributions, party_contributions, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(bioguide_id) DO UPDATE SET
			fec_candidate_id = excluded.fec_candidate_id,
			committee_id = excluded.committee_id,
			cycle = excluded.cycle,
			total_receipts = excluded.total_receipts,
			total_disbursements = excluded.total_disbursements,
			cash_on_hand = excluded.cash_on_hand,
			debt = excluded.debt,
			individual_contributions = excluded.individual_contributions,
			pac_contributions = excluded.pac_contributions,
			party_contributions = excluded.party_contributions,
			cached_at = excluded.cached_at`,
		f.BioguideID, f.FECCandidateID, f.CommitteeID, f.Cycle,
		f.TotalReceipts, f.TotalDisbursements, f.CashOnHand, f.Debt,
		f.IndividualContributions, f.PACContributions, f.PartyContributions, now)
	if err != nil {
		return fmt.Errorf("upserting finance: %w", err)
	}
	f.CachedAt = &now
	return nil
}

// ClearFinanceCachedAt invalidates the finance summary while keeping the
// row, most importantly the resolved fec_candidate_id. Idempotent.
func (s *Store) ClearFinanceCachedAt(ctx context.Context, bioguideID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE campaign_finances SET cached_at = NULL WHERE bioguide_id = ?`, bioguideID)
	if err != nil {
		return fmt.Errorf("clearing finance cached_at: %w", err)
	}
	return nil
}

// ListExpenditures returns up to limit expenditure records, newest
// first. A limit <= 0 returns all.
func (s *Store) ListExpenditures(ctx context.Context, bioguideID string, limit int) ([]Expenditure, error) {
	query := `
		SELECT bioguide_id, payee_name, purpose, amount, date, category
		FROM expenditures WHERE bioguide_id = ? ORDER BY date DESC`
	args := []any{bioguideID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying expenditures: %w", err)
	}
	defer rows.Close()

	var out []Expenditure
	for rows.Next() {
		var e Expenditure
		if err := rows.Scan(&e.BioguideID, &e.PayeeName, &e.Purpose, &e.Amount, &e.Date, &e.Category); err != nil {
			return nil, fmt.Errorf("scanning expenditure: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ReplaceExpenditures atomically swaps the expenditure set for a
// legislator: delete all, then bulk insert.
func (s *Store) ReplaceExpenditures(ctx context.Context, bioguideID string, items []Expenditure) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM expenditures WHERE bioguide_id = ?`, bioguideID); err != nil {
		return fmt.Errorf("deleting expenditures: %w", err)
	}

	for _, e := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO expenditures (bioguide_id, payee_name, purpose, amount, date, category)
			VALUES (?, ?, ?, ?, ?, ?)`,
			bioguideID, e.PayeeName, e.Purpose, e.Amount, e.Date, e.Category); err != nil {
			return fmt.Errorf("inserting expenditure: %w", err)
		}
	}

	return tx.Commit()
}

// ListNews returns all cached articles for a legislator, newest first.
func (s *Store) ListNews(ctx context.Context, bioguideID string) ([]NewsArticle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bioguide_id, title, description, url, source_name, author,
		       image_url, published_at, cached_at
		FROM news_articles WHERE bioguide_id = ?
		ORDER BY published_at DESC`, bioguideID)
	if err != nil {
		return nil, fmt.Errorf("querying news: %w", err)
	}
	defer rows.Close()

	var out []NewsArticle
	for rows.Next() {
		var a NewsArticle
		var publishedAt, cachedAt sql.NullTime
		if err := rows.Scan(&a.BioguideID, &a.Title, &a.Description, &a.URL,
			&a.SourceName, &a.Author, &a.ImageURL, &publishedAt, &cachedAt); err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		if publishedAt.Valid {
			t := publishedAt.Time
			a.PublishedAt = &t
		}
		if cachedAt.Valid {
			t := cachedAt.Time
			a.CachedAt = &t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ReplaceNews atomically swaps the article set for a legislator,
// stamping cached_at on the new rows.
func (s *Store) ReplaceNews(ctx context.Context, bioguideID string, articles []NewsArticle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM news_articles WHERE bioguide_id = ?`, bioguideID); err != nil {
		return fmt.Errorf("deleting news: %w", err)
	}

	now := time.Now().UTC()
	for _, a := range articles {
		var publishedAt any
		if a.PublishedAt != nil {
			publishedAt = *a.PublishedAt
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO news_articles (bioguide_id, title, description, url,
				source_name, author, image_url, published_at, cached_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			bioguideID, a.Title, a.Description, a.URL, a.SourceName,
			a.Author, a.ImageURL, publishedAt, now); err != nil {
			return fmt.Errorf("inserting article: %w", err)
		}
	}

	return tx.Commit()
}

// DeleteNews removes all cached articles for a legislator. Idempotent.
func (s *Store) DeleteNews(ctx context.Context, bioguideID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM news_articles WHERE bioguide_id = ?`, bioguideID)
	if err != nil {
		return fmt.Errorf("deleting news: %w", err)
	}
	return nil
}
