package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type controlCommand struct {
	Action      string    `json:"action"`
	AgentID     string    `json:"agent_id,omitempty"`
	SpaceID     string    `json:"space_id,omitempty"`
	RequestedBy string    `json:"requested_by,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

var (
	brokers   = flag.String("brokers", "localhost:9092", "Comma separated Kafka brokers")
	topic     = flag.String("topic", "space.control", "Control topic")
	agentID   = flag.String("agent", "", "Target agent id (empty targets every agent)")
	action    = flag.String("action", "", "start, stop, join or leave")
	spaceID   = flag.String("space", "", "Space id for join")
	mintToken = flag.Bool("token", false, "Print an admin API bearer token and exit")
	secret    = flag.String("secret", "jwt-secret", "JWT secret used with --token")
	tokenTTL  = flag.Duration("ttl", time.Hour, "Lifetime of the token printed by --token")
)

func main() {
	flag.Parse()

	if *mintToken {
		printToken()
		return
	}

	switch *action {
	case "start", "stop", "leave":
	case "join":
		if *spaceID == "" {
			fmt.Println("Error: --space is required for join")
			os.Exit(1)
		}
	default:
		fmt.Println("Error: --action must be one of start, stop, join, leave")
		flag.Usage()
		os.Exit(1)
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll

	prod, err := sarama.NewSyncProducer(strings.Split(*brokers, ","), cfg)
	if err != nil {
		fmt.Printf("Failed to connect to Kafka: %v\n", err)
		os.Exit(1)
	}
	defer prod.Close()

	cmd := controlCommand{
		Action:      *action,
		AgentID:     *agentID,
		SpaceID:     *spaceID,
		RequestedBy: "simulate-control-" + uuid.NewString()[:8],
		Timestamp:   time.Now(),
	}
	val, err := json.Marshal(cmd)
	if err != nil {
		fmt.Printf("Failed to encode command: %v\n", err)
		os.Exit(1)
	}

	partition, offset, err := prod.SendMessage(&sarama.ProducerMessage{
		Topic: *topic,
		Key:   sarama.StringEncoder(*agentID),
		Value: sarama.ByteEncoder(val),
	})
	if err != nil {
		fmt.Printf("Failed to publish command: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Published %s to %s (partition=%d offset=%d)\n", *action, *topic, partition, offset)
}

func printToken() {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "operator",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(*tokenTTL).Unix(),
	})
	s, err := tok.SignedString([]byte(*secret))
	if err != nil {
		fmt.Printf("Failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(s)
}
