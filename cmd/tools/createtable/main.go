package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get DB: %v", err)
	}

	sql := `
	CREATE TABLE IF NOT EXISTS payment_intents (
	  id CHAR(36) NOT NULL,
	  order_id CHAR(36) NOT NULL,
	  customer_id CHAR(36) NOT NULL,
	  vendor_id CHAR(36) NOT NULL,
	  amount_minor BIGINT NOT NULL,
	  currency CHAR(3) NOT NULL DEFAULT 'EGP',
	  status VARCHAR(32) NOT NULL,
	  vendor_tier VARCHAR(16) NOT NULL DEFAULT 'standard',
	  external_ref VARCHAR(128) NULL,
	  idempotency_key VARCHAR(64) NOT NULL,
	  refunded_minor BIGINT NOT NULL DEFAULT 0,
	  error_message VARCHAR(255) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_payment_intents_order (order_id),
	  KEY ix_payment_intents_vendor (vendor_id),
	  UNIQUE KEY ux_payment_intents_external_ref (external_ref),
	  UNIQUE KEY ux_payment_intents_order_key (order_id, idempotency_key)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS refunds (
	  id CHAR(36) NOT NULL,
	  payment_id CHAR(36) NOT NULL,
	  amount_minor BIGINT NOT NULL,
	  currency CHAR(3) NOT NULL,
	  is_partial TINYINT(1) NOT NULL DEFAULT 0,
	  remaining_minor BIGINT NOT NULL DEFAULT 0,
	  status VARCHAR(16) NOT NULL,
	  gateway_ref VARCHAR(128) NULL,
	  reason VARCHAR(255) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_refunds_payment (payment_id),
	  CONSTRAINT fk_refunds_payment FOREIGN KEY (payment_id) REFERENCES payment_intents(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS gateway_events (
	  id CHAR(36) NOT NULL,
	  event_id VARCHAR(128) NOT NULL,
	  event_type VARCHAR(64) NOT NULL,
	  payload_json JSON NOT NULL,
	  received_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  processed_at DATETIME(3) NULL,
	  process_error VARCHAR(255) NULL,
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_gateway_events_event_id (event_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS wallets (
	  id CHAR(36) NOT NULL,
	  owner_id CHAR(36) NOT NULL,
	  owner_type VARCHAR(16) NOT NULL,
	  balance_minor BIGINT NOT NULL DEFAULT 0,
	  currency CHAR(3) NOT NULL DEFAULT 'EGP',
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_wallets_owner (owner_id, owner_type)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS wallet_ledger_entries (
	  id CHAR(36) NOT NULL,
	  wallet_id CHAR(36) NOT NULL,
	  direction VARCHAR(8) NOT NULL,
	  amount_minor BIGINT NOT NULL,
	  currency CHAR(3) NOT NULL,
	  related_payment_id CHAR(36) NULL,
	  reference VARCHAR(128) NULL,
	  running_balance_after BIGINT NOT NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_ledger_wallet_created (wallet_id, created_at),
	  KEY ix_ledger_payment (related_payment_id),
	  CONSTRAINT fk_ledger_wallet FOREIGN KEY (wallet_id) REFERENCES wallets(id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS wallet_transactions (
	  id CHAR(36) NOT NULL,
	  wallet_id CHAR(36) NOT NULL,
	  type VARCHAR(16) NOT NULL,
	  amount_minor BIGINT NOT NULL,
	  fee_minor BIGINT NOT NULL DEFAULT 0,
	  currency CHAR(3) NOT NULL,
	  method VARCHAR(32) NULL,
	  reference VARCHAR(128) NULL,
	  status VARCHAR(16) NOT NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_wallet_tx_wallet (wallet_id),
	  CONSTRAINT fk_wallet_tx_wallet FOREIGN KEY (wallet_id) REFERENCES wallets(id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS instapay_proofs (
	  id CHAR(36) NOT NULL,
	  order_id CHAR(36) NOT NULL,
	  reference_code VARCHAR(64) NOT NULL,
	  expected_minor BIGINT NOT NULL,
	  submitted_minor BIGINT NOT NULL,
	  currency CHAR(3) NOT NULL,
	  matched TINYINT(1) NOT NULL DEFAULT 0,
	  attachment_key VARCHAR(255) NULL,
	  attachment_url VARCHAR(255) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_instapay_proofs_order (order_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`

	if _, err := sqlDB.Exec(sql); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	log.Println("✓ payment_intents table created")
	log.Println("✓ refunds table created")
	log.Println("✓ gateway_events table created")
	log.Println("✓ wallets, wallet_ledger_entries, wallet_transactions tables created")
	log.Println("✓ instapay_proofs table created")
}
