package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func writeFixtures(t *testing.T, dir string) {
	t.Helper()
	writeSource(t, dir, "crm_customers.csv",
		"customer_id,first_name,last_name,marital_status,gender,create_date\n"+
			"AW1,Jon,Yang,M,M,2024-01-15\n")
	writeSource(t, dir, "crm_products.csv",
		"product_id,product_key,product_name,cost,product_line,start_date\n"+
			"210,CO-RF-FR-R92B-58,HL Road Frame,1059,R,2021-01-01\n")
	writeSource(t, dir, "crm_sales.csv",
		"order_number,product_key,customer_id,order_date,ship_date,due_date,quantity,unit_price,line_amount\n"+
			"SO1,FR-R92B-58,AW1,20210301,20210308,20210313,2,1200,2400\n")
	writeSource(t, dir, "erp_customers.csv",
		"customer_id,birth_date,gender\nNASAW1,1980-05-02,Male\n")
	writeSource(t, dir, "erp_locations.csv",
		"customer_id,country\nAW-1,DE\n")
	writeSource(t, dir, "erp_categories.csv",
		"category_id,category,subcategory,maintenance\nCO_RF,Components,Road Frames,Yes\n")
}

func TestRun_FullBatchFromCSVFixtures(t *testing.T) {
	sources := t.TempDir()
	warehouse := t.TempDir()
	writeFixtures(t, sources)

	code := run("", sources, warehouse, false)
	assert.Equal(t, 0, code)

	for _, table := range []string{"dim_customers.csv", "dim_products.csv", "fact_sales.csv"} {
		_, err := os.Stat(filepath.Join(warehouse, "current", table))
		assert.NoError(t, err, table)
	}
}

func TestRun_MissingSourcesFails(t *testing.T) {
	code := run("", t.TempDir(), t.TempDir(), false)
	assert.Equal(t, 1, code)
}

func TestRun_BlockingViolationExitCode(t *testing.T) {
	sources := t.TempDir()
	warehouse := t.TempDir()
	writeFixtures(t, sources)
	// Negative quantity trips a blocking rule; the run still commits.
	writeSource(t, sources, "crm_sales.csv",
		"order_number,product_key,customer_id,order_date,ship_date,due_date,quantity,unit_price,line_amount\n"+
			"SO1,FR-R92B-58,AW1,20210301,20210308,20210313,-2,1200,2400\n")

	code := run("", sources, warehouse, false)
	assert.Equal(t, 2, code)

	_, err := os.Stat(filepath.Join(warehouse, "current", "fact_sales.csv"))
	assert.NoError(t, err, "blocking violations complete the run and commit")
}
