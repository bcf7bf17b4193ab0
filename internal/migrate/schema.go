// internal/migrate/schema.go
//
// Core control-database schema.
//
// Every table scopes tenant data by site_id against a single MySQL
// database.  Charset is utf8mb4 throughout; VARCHAR key columns stay at or
// under 191 so unique indexes fit the 767-byte limit on older InnoDB row
// formats.  Probe objects are the created tables, or the added column for
// ALTER migrations, which is what the recovery path checks after an
// "already exists" collision.
package migrate

func init() {
	Register(Migration{
		ID: "0001_themes",
		Statements: []string{`CREATE TABLE themes (
  id           BIGINT       NOT NULL AUTO_INCREMENT,
  name         VARCHAR(64)  NOT NULL,
  display_name VARCHAR(191) NOT NULL,
  description  TEXT         NOT NULL,
  version      VARCHAR(32)  NOT NULL DEFAULT '1.0.0',
  is_default   TINYINT(1)   NOT NULL DEFAULT 0,
  created_at   TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at   TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  UNIQUE KEY uq_themes_name (name)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
		Probe: Probe{Table: "themes"},
	})

	Register(Migration{
		ID: "0002_sites",
		Statements: []string{`CREATE TABLE sites (
  id            BIGINT       NOT NULL AUTO_INCREMENT,
  host          VARCHAR(191) NOT NULL,
  name          VARCHAR(191) NOT NULL,
  url_slug      VARCHAR(64)  NOT NULL,
  admin_email   VARCHAR(191) NOT NULL DEFAULT '',
  title         VARCHAR(191) NOT NULL DEFAULT '',
  locale        VARCHAR(16)  NOT NULL DEFAULT 'en',
  theme_id      BIGINT       DEFAULT NULL,
  route_version INT          NOT NULL DEFAULT 1,
  suspended_at  TIMESTAMP    NULL DEFAULT NULL,
  deleted_at    TIMESTAMP    NULL DEFAULT NULL,
  created_at    TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at    TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  UNIQUE KEY uq_sites_host (host),
  UNIQUE KEY uq_sites_url_slug (url_slug),
  CONSTRAINT fk_sites_theme FOREIGN KEY (theme_id) REFERENCES themes (id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
		Probe: Probe{Table: "sites"},
	})

	Register(Migration{
		ID: "0003_site_config",
		Statements: []string{`CREATE TABLE site_config (
  site_id    BIGINT       NOT NULL,
  name       VARCHAR(191) NOT NULL,
  value      TEXT         NOT NULL,
  updated_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  PRIMARY KEY (site_id, name),
  CONSTRAINT fk_site_config_site FOREIGN KEY (site_id) REFERENCES sites (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
		Probe: Probe{Table: "site_config"},
	})

	Register(Migration{
		ID: "0004_pages",
		Statements: []string{`CREATE TABLE pages (
  id                 BIGINT       NOT NULL AUTO_INCREMENT,
  site_id            BIGINT       NOT NULL,
  master_page_id     BIGINT       DEFAULT NULL,
  title              VARCHAR(191) NOT NULL,
  slug               VARCHAR(191) NOT NULL,
  path               VARCHAR(191) NOT NULL,
  body_html          MEDIUMTEXT   NOT NULL,
  show_in_navigation TINYINT(1)   NOT NULL DEFAULT 1,
  is_published       TINYINT(1)   NOT NULL DEFAULT 0,
  sort_order         INT          NOT NULL DEFAULT 0,
  deleted_at         TIMESTAMP    NULL DEFAULT NULL,
  created_at         TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at         TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  UNIQUE KEY uq_pages_site_path (site_id, path),
  KEY ix_pages_site_nav (site_id, show_in_navigation, sort_order),
  CONSTRAINT fk_pages_site FOREIGN KEY (site_id) REFERENCES sites (id) ON DELETE CASCADE,
  CONSTRAINT fk_pages_master FOREIGN KEY (master_page_id) REFERENCES pages (id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
		Probe: Probe{Table: "pages"},
	})

	Register(Migration{
		ID: "0005_users",
		Statements: []string{`CREATE TABLE users (
  id                  BIGINT       NOT NULL AUTO_INCREMENT,
  email               VARCHAR(191) NOT NULL,
  username            VARCHAR(64)  NOT NULL,
  password_hash       VARCHAR(100) NOT NULL,
  display_name        VARCHAR(191) NOT NULL DEFAULT '',
  security_stamp      CHAR(32)     NOT NULL,
  access_failed_count INT          NOT NULL DEFAULT 0,
  lockout_until       TIMESTAMP    NULL DEFAULT NULL,
  deleted_at          TIMESTAMP    NULL DEFAULT NULL,
  created_at          TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at          TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  UNIQUE KEY uq_users_email (email),
  UNIQUE KEY uq_users_username (username)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
		Probe: Probe{Table: "users"},
	})

	Register(Migration{
		ID: "0006_roles",
		Statements: []string{
			`CREATE TABLE roles (
  id   BIGINT      NOT NULL AUTO_INCREMENT,
  name VARCHAR(64) NOT NULL,
  PRIMARY KEY (id),
  UNIQUE KEY uq_roles_name (name)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE user_roles (
  user_id BIGINT NOT NULL,
  role_id BIGINT NOT NULL,
  PRIMARY KEY (user_id, role_id),
  CONSTRAINT fk_user_roles_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
  CONSTRAINT fk_user_roles_role FOREIGN KEY (role_id) REFERENCES roles (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		},
		Probe: Probe{Table: "user_roles"},
	})

	Register(Migration{
		ID: "0007_content",
		Statements: []string{`CREATE TABLE content (
  id          BIGINT       NOT NULL AUTO_INCREMENT,
  site_id     BIGINT       NOT NULL,
  title       VARCHAR(191) NOT NULL,
  asset_key   CHAR(36)     NOT NULL,
  mime_type   VARCHAR(128) NOT NULL DEFAULT 'application/octet-stream',
  size_bytes  BIGINT       NOT NULL DEFAULT 0,
  description TEXT         NOT NULL,
  deleted_at  TIMESTAMP    NULL DEFAULT NULL,
  created_at  TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at  TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  UNIQUE KEY uq_content_asset_key (asset_key),
  KEY ix_content_site (site_id),
  CONSTRAINT fk_content_site FOREIGN KEY (site_id) REFERENCES sites (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
		Probe: Probe{Table: "content"},
	})

	Register(Migration{
		ID: "0008_subscriptions",
		Statements: []string{`CREATE TABLE subscriptions (
  id                 BIGINT      NOT NULL AUTO_INCREMENT,
  site_id            BIGINT      NOT NULL,
  plan               VARCHAR(32) NOT NULL DEFAULT 'free',
  status             VARCHAR(16) NOT NULL DEFAULT 'trialing',
  current_period_end TIMESTAMP   NULL DEFAULT NULL,
  created_at         TIMESTAMP   NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at         TIMESTAMP   NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  UNIQUE KEY uq_subscriptions_site (site_id),
  CONSTRAINT fk_subscriptions_site FOREIGN KEY (site_id) REFERENCES sites (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
		Probe: Probe{Table: "subscriptions"},
	})

	Register(Migration{
		ID: "0009_training_data",
		Statements: []string{`CREATE TABLE training_data (
  id         BIGINT       NOT NULL AUTO_INCREMENT,
  site_id    BIGINT       NOT NULL,
  category   VARCHAR(64)  NOT NULL DEFAULT 'general',
  content    TEXT         NOT NULL,
  source     VARCHAR(128) NOT NULL DEFAULT 'manual',
  priority   INT          NOT NULL DEFAULT 0,
  is_active  TINYINT(1)   NOT NULL DEFAULT 1,
  created_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  KEY ix_training_site_active (site_id, is_active, priority),
  CONSTRAINT fk_training_site FOREIGN KEY (site_id) REFERENCES sites (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
		Probe: Probe{Table: "training_data"},
	})

	// Meta descriptions arrived after launch.
	Register(Migration{
		ID: "0010_pages_meta_description",
		Statements: []string{
			`ALTER TABLE pages ADD COLUMN meta_description VARCHAR(191) NOT NULL DEFAULT ''`,
		},
		Probe: Probe{Table: "pages", Column: "meta_description"},
	})
}
