package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"address-api/internal/division"

	"github.com/joho/godotenv"
)

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "commands:")
	fmt.Fprintln(w, "  region <code>")
	fmt.Fprintln(w, "  sub <code> [region]")
	fmt.Fprintln(w, "  loc <code> [subregion] [region]")
	fmt.Fprintln(w, "  names <region> <subregion> <locality>")
	fmt.Fprintln(w, "  format <region> <subregion> <locality> [fallback]")
	fmt.Fprintln(w, "  match <name...>")
	fmt.Fprintln(w, "  list [region]")
	fmt.Fprintln(w, "  stats")
	fmt.Fprintln(w, "  help")
	fmt.Fprintln(w, "  exit")
}

// arg：取第 i 个参数作为编码；缺失或 "-" 视为未提供
func arg(parts []string, i int) division.Code {
	if i >= len(parts) || parts[i] == "-" {
		return division.Code{}
	}
	return division.ParseCode(parts[i])
}

func codes(parts []string) division.Codes {
	return division.Codes{Region: arg(parts, 1), SubRegion: arg(parts, 2), Locality: arg(parts, 3)}
}

// exec：执行一行命令；返回 false 表示退出
func exec(res *division.Resolver, line string, w io.Writer) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	switch strings.ToLower(parts[0]) {
	case "exit", "quit":
		return false
	case "help":
		printHelp(w)
	case "region":
		if len(parts) < 2 {
			fmt.Fprintln(w, "usage: region <code>")
			return true
		}
		if r, ok := res.FindRegion(arg(parts, 1)); ok {
			fmt.Fprintf(w, "%d %s (%d subregions)\n", r.Code, r.Name, len(r.SubRegions))
		} else {
			fmt.Fprintln(w, "not found")
		}
	case "sub":
		if len(parts) < 2 {
			fmt.Fprintln(w, "usage: sub <code> [region]")
			return true
		}
		if s, ok := res.FindSubRegion(arg(parts, 1), arg(parts, 2)); ok {
			fmt.Fprintf(w, "%d %s (%d localities)\n", s.Code, s.Name, len(s.Localities))
		} else {
			fmt.Fprintln(w, "not found")
		}
	case "loc":
		if len(parts) < 2 {
			fmt.Fprintln(w, "usage: loc <code> [subregion] [region]")
			return true
		}
		if l, ok := res.FindLocality(arg(parts, 1), arg(parts, 2), arg(parts, 3)); ok {
			fmt.Fprintf(w, "%d %s\n", l.Code, l.Name)
		} else {
			fmt.Fprintln(w, "not found")
		}
	case "names":
		n := res.ResolveNames(codes(parts))
		fmt.Fprintf(w, "region=%q subregion=%q locality=%q\n", n.Region, n.SubRegion, n.Locality)
	case "format":
		fallback := ""
		if len(parts) > 4 {
			fallback = strings.Join(parts[4:], " ")
		}
		fmt.Fprintln(w, res.FormatAddress(codes(parts), fallback))
	case "match":
		if len(parts) < 2 {
			fmt.Fprintln(w, "usage: match <name...>")
			return true
		}
		if r, ok := res.MatchRegion(strings.Join(parts[1:], " ")); ok {
			fmt.Fprintf(w, "%d %s\n", r.Code, r.Name)
		} else {
			fmt.Fprintln(w, "not found")
		}
	case "list":
		if len(parts) < 2 {
			for _, r := range res.Regions() {
				fmt.Fprintf(w, "%d %s\n", r.Code, r.Name)
			}
			return true
		}
		for _, s := range res.SubRegionsOf(arg(parts, 1)) {
			fmt.Fprintf(w, "%d %s\n", s.Code, s.Name)
		}
	case "stats":
		s := res.Stats()
		fmt.Fprintf(w, "regions=%d subregions=%d localities=%d\n", s.Regions, s.SubRegions, s.Localities)
	default:
		fmt.Fprintln(w, "unknown command, type help")
	}
	return true
}

// 文档注释：行政区交互式查询
// 用法：division-cli [--env file] [dataset.json]；未指定数据文件时使用 DIVISION_FILE 或内置数据。
func main() {
	var envFile, dataFile string
	for i := 1; i < len(os.Args); i++ {
		if os.Args[i] == "--env" && i+1 < len(os.Args) {
			envFile = os.Args[i+1]
			i++
		} else if strings.HasSuffix(os.Args[i], ".json") {
			dataFile = os.Args[i]
		}
	}
	if envFile != "" {
		_ = godotenv.Load(envFile)
	} else {
		_ = godotenv.Load(".env")
	}
	if dataFile == "" {
		dataFile = os.Getenv("DIVISION_FILE")
	}
	res := division.Default()
	if dataFile != "" {
		r, err := division.LoadFile(dataFile)
		if err != nil {
			fmt.Println("load error:", err)
			os.Exit(1)
		}
		res = r
	}
	fmt.Println("division cli ready")
	printHelp(os.Stdout)
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !in.Scan() {
			break
		}
		if !exec(res, in.Text(), os.Stdout) {
			return
		}
	}
}
