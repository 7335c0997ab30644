package storage

const schema = `
-- Exams are never removed, only flagged.
CREATE TABLE IF NOT EXISTS exams (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    is_deleted INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL
);

-- status: 0 draft, 1 published. At most one draft per exam is kept by the application.
CREATE TABLE IF NOT EXISTS exam_versions (
    id TEXT PRIMARY KEY,
    exam_id TEXT NOT NULL,
    version_number INTEGER NOT NULL,
    status INTEGER NOT NULL DEFAULT 0,
    notes TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    published_at DATETIME,

    UNIQUE (exam_id, version_number),
    FOREIGN KEY(exam_id) REFERENCES exams(id)
);

-- question_key is shared by every row of the same logical question across versions.
CREATE TABLE IF NOT EXISTS questions (
    id TEXT PRIMARY KEY,
    exam_version_id TEXT NOT NULL,
    question_key TEXT NOT NULL,
    text TEXT NOT NULL,
    explanation TEXT NOT NULL DEFAULT '',
    order_index INTEGER NOT NULL,
    difficulty INTEGER,
    correct_option_id TEXT,

    UNIQUE (exam_version_id, question_key),
    FOREIGN KEY(exam_version_id) REFERENCES exam_versions(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_questions_key ON questions(question_key);

CREATE TABLE IF NOT EXISTS options (
    id TEXT PRIMARY KEY,
    question_id TEXT NOT NULL,
    option_key TEXT NOT NULL,
    text TEXT NOT NULL,
    order_index INTEGER NOT NULL,

    FOREIGN KEY(question_id) REFERENCES questions(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_options_question ON options(question_id);

CREATE TABLE IF NOT EXISTS attempts (
    id TEXT PRIMARY KEY,
    exam_version_id TEXT NOT NULL,
    started_at DATETIME NOT NULL,
    finished_at DATETIME,
    total_count INTEGER NOT NULL DEFAULT 0,
    correct_count INTEGER NOT NULL DEFAULT 0,
    score_percent REAL NOT NULL DEFAULT 0,
    duration_seconds INTEGER NOT NULL DEFAULT 0,

    FOREIGN KEY(exam_version_id) REFERENCES exam_versions(id)
);

CREATE TABLE IF NOT EXISTS attempt_answers (
    attempt_id TEXT NOT NULL,
    question_id TEXT NOT NULL,
    question_key TEXT NOT NULL,
    selected_option_id TEXT NOT NULL,
    selected_option_key TEXT NOT NULL,
    is_correct INTEGER NOT NULL,
    answered_at DATETIME NOT NULL,
    seconds_spent INTEGER NOT NULL DEFAULT 0,
    flagged_doubt INTEGER NOT NULL DEFAULT 0,

    PRIMARY KEY (attempt_id, question_id),
    FOREIGN KEY(attempt_id) REFERENCES attempts(id)
);
CREATE INDEX IF NOT EXISTS idx_attempt_answers_key ON attempt_answers(question_key);

-- One row per question_key that has ever been answered.
CREATE TABLE IF NOT EXISTS question_stats (
    id TEXT PRIMARY KEY,
    question_key TEXT NOT NULL UNIQUE,
    correct_count INTEGER NOT NULL DEFAULT 0,
    wrong_count INTEGER NOT NULL DEFAULT 0,
    ease_factor REAL NOT NULL,
    interval_days INTEGER NOT NULL,
    last_seen_at DATETIME,
    last_correct_at DATETIME,
    due_at DATETIME
);

-- The 'sources' table tracks where exam banks come from, either a local directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local',
    last_scanned DATETIME
);

CREATE TABLE IF NOT EXISTS source_files (
    source_id INTEGER NOT NULL,
    rel_path TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    exam_id TEXT NOT NULL,
    synced_at DATETIME NOT NULL,

    PRIMARY KEY (source_id, rel_path),
    FOREIGN KEY(source_id) REFERENCES sources(id) ON DELETE CASCADE
);
`
