package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create runs table
			CREATE TABLE runs (
				id VARCHAR(64) PRIMARY KEY,
				workflow_name VARCHAR(255) NOT NULL DEFAULT '',
				plan JSONB NOT NULL DEFAULT '{}',
				stats JSONB NOT NULL DEFAULT '{}',
				leads JSONB NOT NULL DEFAULT '[]',
				log JSONB NOT NULL DEFAULT '[]',
				cancelled BOOLEAN NOT NULL DEFAULT false,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				finished_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_runs_started_at ON runs(started_at);
		`,
	}
}
