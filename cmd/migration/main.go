package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gitlab.com/dirk.krummacker/contacts-api/internal/config"
)

// sqlDrivers maps the configured database driver to the database/sql driver name.
var sqlDrivers = map[string]string{
	config.DriverMySQL:    "mysql",
	config.DriverPostgres: "pgx",
}

// Usage example on the command line:
// > CONTACTS_DATABASE_USER=dirk CONTACTS_DATABASE_PASSWORD=bullo92 go run main.go -file=../../scripts/mysql/contacts.sql
// > CONTACTS_DATABASE_DRIVER=postgres go run main.go -file=../../scripts/postgres/contacts.sql
func main() {
	filePtr := flag.String("file", "contacts.sql", "the sql file to execute")
	configPtr := flag.String("config", "", "optional YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPtr)
	if err != nil {
		panic(err)
	}
	driver, ok := sqlDrivers[cfg.Database.Driver]
	if !ok {
		panic(fmt.Sprintf("database driver %q has no schema", cfg.Database.Driver))
	}
	dsn, err := cfg.Database.ConnectionString()
	if err != nil {
		panic(err)
	}
	db := sqlx.MustConnect(driver, dsn)
	defer db.Close()

	readFile, err := os.Open(*filePtr) // nosemgrep
	if err != nil {
		panic(err)
	}
	defer readFile.Close()

	fileScanner := bufio.NewScanner(readFile)
	fileScanner.Split(bufio.ScanLines)
	builder := strings.Builder{}
	for fileScanner.Scan() {
		line := fileScanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		builder.WriteString(line)
		builder.WriteString(" ")
		if strings.Contains(line, ";") {
			sql := builder.String()
			db.MustExec(sql)
			builder = strings.Builder{}
		}
	}
	if err := fileScanner.Err(); err != nil {
		panic(err)
	}
}
