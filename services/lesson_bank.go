package services

import (
	"hash/fnv"
	"time"

	"aura-api/models"
)

// LessonTopics rotate daily.
var LessonTopics = []string{
	"self-custody wallets",
	"building a daily habit",
	"stablecoins",
	"giving constructive feedback",
	"phishing and seed phrase safety",
	"personal branding online",
	"gas fees and layer 2 networks",
}

// TopicFor picks the topic for a user on a day. Users see different topics
// on the same day.
func TopicFor(userID string, day time.Time) string {
	h := fnv.New32a()
	h.Write([]byte(userID))
	idx := (int(h.Sum32()%1000) + day.YearDay()) % len(LessonTopics)
	return LessonTopics[idx]
}

// fallbackLessons is served when the LLM is not configured or fails.
var fallbackLessons = map[string]GeneratedLesson{
	"self-custody wallets": {
		Title:   "Your Keys, Your Coins",
		Content: "A self-custody wallet means you alone hold the private key. No company can freeze or recover it for you, which is why the seed phrase must be stored offline and never shared.",
		Questions: []models.Question{
			{Prompt: "Who controls funds in a self-custody wallet?", Options: []string{"The exchange", "The key holder", "The blockchain validators", "Nobody"}, Answer: 1},
			{Prompt: "Where should a seed phrase be stored?", Options: []string{"In a screenshot", "In email drafts", "Offline, written down", "In a group chat"}, Answer: 2},
			{Prompt: "Can support staff recover a lost seed phrase?", Options: []string{"Yes", "No"}, Answer: 1},
		},
	},
	"building a daily habit": {
		Title:   "Small Steps, Daily",
		Content: "Habits stick when the first step is tiny and the cue is consistent. Tie the new habit to something you already do and track the streak.",
		Questions: []models.Question{
			{Prompt: "What makes a new habit easier to start?", Options: []string{"A huge first goal", "A tiny first step", "Waiting for motivation", "Doing it randomly"}, Answer: 1},
			{Prompt: "Habit stacking means", Options: []string{"Doing many habits at once", "Linking a new habit to an existing one", "Skipping weekends", "Buying habit apps"}, Answer: 1},
			{Prompt: "Tracking a streak helps because", Options: []string{"It makes progress visible", "It is required by law", "It slows you down", "It replaces the habit"}, Answer: 0},
		},
	},
	"stablecoins": {
		Title:   "What Keeps a Stablecoin Stable",
		Content: "Stablecoins such as USDC aim to hold a 1:1 value with a fiat currency. Fiat-backed coins hold reserves like cash and treasuries, and on-chain they move as ordinary ERC-20 tokens.",
		Questions: []models.Question{
			{Prompt: "USDC tracks the value of", Options: []string{"Bitcoin", "Gold", "The US dollar", "Ether"}, Answer: 2},
			{Prompt: "Fiat-backed stablecoins are backed by", Options: []string{"Reserves", "Mining rewards", "Nothing", "NFTs"}, Answer: 0},
			{Prompt: "On EVM chains USDC is", Options: []string{"A native coin", "An ERC-20 token", "A validator", "A wallet"}, Answer: 1},
		},
	},
	"giving constructive feedback": {
		Title:   "Feedback That Lands",
		Content: "Good feedback is specific, timely and about behaviour rather than the person. Pair what worked with one concrete suggestion.",
		Questions: []models.Question{
			{Prompt: "Constructive feedback focuses on", Options: []string{"Personality", "Behaviour", "Rumours", "Past mistakes only"}, Answer: 1},
			{Prompt: "When is feedback most useful?", Options: []string{"Months later", "Soon after the event", "Never", "Only in public"}, Answer: 1},
			{Prompt: "A good suggestion is", Options: []string{"Vague", "Concrete", "Sarcastic", "Anonymous"}, Answer: 1},
		},
	},
	"phishing and seed phrase safety": {
		Title:   "Spotting Phishing",
		Content: "Phishing sites copy real apps to steal seed phrases or signatures. Check the URL, never type a seed phrase into a website, and read what a wallet is asking you to sign.",
		Questions: []models.Question{
			{Prompt: "A site asks for your seed phrase to 'verify' your wallet. You should", Options: []string{"Enter it", "Close the site", "Send half of it", "Email it instead"}, Answer: 1},
			{Prompt: "Before signing a wallet request you should", Options: []string{"Read what it asks", "Sign quickly", "Ignore the details", "Disable the wallet"}, Answer: 0},
			{Prompt: "Lookalike domains are a sign of", Options: []string{"Phishing", "Faster service", "Official mirrors", "Layer 2s"}, Answer: 0},
		},
	},
	"personal branding online": {
		Title:   "Show Your Work",
		Content: "A personal brand grows from consistently sharing what you learn and build. Pick a niche, post regularly and engage with others' work.",
		Questions: []models.Question{
			{Prompt: "A personal brand grows mostly from", Options: []string{"Consistency", "Buying followers", "Posting once", "Arguing"}, Answer: 0},
			{Prompt: "Choosing a niche helps people", Options: []string{"Forget you", "Know what to expect from you", "Block you", "Nothing"}, Answer: 1},
			{Prompt: "Engaging with others' work is", Options: []string{"A waste of time", "Part of building community", "Forbidden", "Spam"}, Answer: 1},
		},
	},
	"gas fees and layer 2 networks": {
		Title:   "Why Layer 2s Are Cheap",
		Content: "Every transaction pays gas. Layer 2 networks batch many transactions and settle them on Ethereum, which spreads the cost and lowers fees for each user.",
		Questions: []models.Question{
			{Prompt: "Gas pays for", Options: []string{"Computation and storage on chain", "Wallet downloads", "Internet access", "Nothing"}, Answer: 0},
			{Prompt: "Layer 2 networks lower fees by", Options: []string{"Batching transactions", "Removing security", "Printing tokens", "Using email"}, Answer: 0},
			{Prompt: "Base is", Options: []string{"A layer 2 network", "A stablecoin", "A wallet", "A DEX"}, Answer: 0},
		},
	},
}

// fallbackLesson returns the bank lesson for topic, or the first one.
func fallbackLesson(topic string) GeneratedLesson {
	if l, ok := fallbackLessons[topic]; ok {
		return l
	}
	return fallbackLessons[LessonTopics[0]]
}
