package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/RichardKnop/minidb/internal/minidb"
	"github.com/RichardKnop/minidb/internal/pkg/logging"
	"github.com/RichardKnop/minidb/internal/pkg/util"
)

const (
	cliName string = "minidb"

	defaultDbFileName = "db"
	defaultTableName  = "users"
)

func printPrompt() {
	fmt.Print(cliName, "> ")
}

type metaCommand int

const (
	Unknown metaCommand = iota + 1
	Help
	Exit
	Btree
	Constants
)

func isMetaCommand(inputBuffer string) bool {
	return len(inputBuffer) > 0 && inputBuffer[:1] == "."
}

func doMetaCommand(inputBuffer string) metaCommand {
	switch strings.ToLower(inputBuffer) {
	case "help":
		return Help
	case "exit":
		return Exit
	case "btree":
		return Btree
	case "constants":
		return Constants
	default:
		return Unknown
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	logger, err := logging.NewLogger(level)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() // flushes buffer, if any

	dbFileName := defaultDbFileName
	if len(os.Args) > 1 {
		dbFileName = os.Args[1]
	}

	dbFile, err := os.OpenFile(dbFileName, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		panic(err)
	}
	defer dbFile.Close()

	aPager, err := minidb.NewPager(dbFile)
	if err != nil {
		panic(err)
	}
	aTable := minidb.NewTable(logger, defaultTableName, aPager, 0)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	reader := bufio.NewScanner(os.Stdin)
	printPrompt()

	// REPL (Read-eval-print loop) start
	for reader.Scan() {
		if ctx.Err() != nil {
			break
		}

		inputBuffer := strings.TrimSpace(reader.Text())
		if isMetaCommand(inputBuffer) {
			if doMeta(ctx, os.Stdout, aTable, inputBuffer) == Exit {
				break
			}
		} else if inputBuffer != "" {
			executeStatement(ctx, os.Stdout, aTable, inputBuffer)
		}
		printPrompt()
	}
	// Print an additional line if we encountered an EOF character
	fmt.Println()

	if err := aTable.Close(context.Background()); err != nil {
		fmt.Printf("error closing database: %s\n", err)
	}
}

func doMeta(ctx context.Context, w io.Writer, aTable *minidb.Table, inputBuffer string) metaCommand {
	aCommand := doMetaCommand(inputBuffer[1:])
	switch aCommand {
	case Help:
		fmt.Fprintln(w, ".help       - Show available commands")
		fmt.Fprintln(w, ".exit       - Closes program")
		fmt.Fprintln(w, ".btree      - Print the btree structure")
		fmt.Fprintln(w, ".constants  - Print layout constants")
	case Exit:
	case Btree:
		aNode, err := aTable.DumpTree(ctx)
		if err != nil {
			fmt.Fprintf(w, "Error dumping tree: %s\n", err)
			break
		}
		printTreeNode(w, aNode, 0)
	case Constants:
		printConstants(w)
	case Unknown:
		fmt.Fprintf(w, "Unrecognized meta command: %s\n", inputBuffer)
	}
	return aCommand
}

func executeStatement(ctx context.Context, w io.Writer, aTable *minidb.Table, inputBuffer string) {
	fields := strings.Fields(inputBuffer)

	switch strings.ToLower(fields[0]) {
	case "insert":
		aRow, err := parseInsert(fields)
		if err != nil {
			fmt.Fprintf(w, "Error: %s\n", err)
			return
		}
		if err := aTable.Insert(ctx, aRow); err != nil {
			fmt.Fprintf(w, "Error executing statement: %s\n", err)
			return
		}
		fmt.Fprintln(w, "Rows affected: 1")
	case "select":
		aResult, err := aTable.Select(ctx)
		if err != nil {
			fmt.Fprintf(w, "Error executing statement: %s\n", err)
			return
		}
		util.PrintTableHeader(w, aResult.Columns)
		aRow, err := aResult.Rows(ctx)
		for ; err == nil; aRow, err = aResult.Rows(ctx) {
			util.PrintTableRow(w, aResult.Columns, aRow)
		}
		if !errors.Is(err, minidb.ErrNoMoreRows) {
			fmt.Fprintf(w, "Error executing statement: %s\n", err)
		}
	default:
		fmt.Fprintf(w, "Unrecognized statement: %s\n", inputBuffer)
	}
}

func parseInsert(fields []string) (minidb.Row, error) {
	if len(fields) != 4 {
		return minidb.Row{}, fmt.Errorf("insert expects 3 arguments: insert <id> <username> <email>")
	}
	id, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return minidb.Row{}, fmt.Errorf("invalid id %q", fields[1])
	}
	return minidb.Row{
		ID:       int32(id),
		Username: fields[2],
		Email:    fields[3],
	}, nil
}

func printTreeNode(w io.Writer, aNode *minidb.TreeNode, depth int) {
	indent := strings.Repeat("  ", depth)
	if aNode.Internal {
		fmt.Fprintf(w, "%sinternal node, page: %d, number of keys: %d, keys: %v\n",
			indent, aNode.PageIdx, aNode.Cells, aNode.Keys)
		for _, child := range aNode.Children {
			printTreeNode(w, child, depth+1)
		}
	} else {
		fmt.Fprintf(w, "%sleaf node, page: %d, number of cells: %d, keys: %v\n",
			indent, aNode.PageIdx, aNode.Cells, aNode.Keys)
	}
}

func printConstants(w io.Writer) {
	fmt.Fprintf(w, "PageSize: %d\n", minidb.PageSize)
	fmt.Fprintf(w, "RowSize: %d\n", minidb.RowSize)
	fmt.Fprintf(w, "CommonHeaderSize: %d\n", minidb.CommonHeaderSize)
	fmt.Fprintf(w, "LeafHeaderSize: %d\n", minidb.LeafHeaderSize)
	fmt.Fprintf(w, "LeafCellSize: %d\n", minidb.LeafCellSize)
	fmt.Fprintf(w, "LeafSpaceForCells: %d\n", minidb.LeafSpaceForCells)
	fmt.Fprintf(w, "LeafNodeMaxCells: %d\n", minidb.LeafNodeMaxCells)
	fmt.Fprintf(w, "InternalNodeMaxCells: %d\n", minidb.InternalNodeMaxCells)
}
