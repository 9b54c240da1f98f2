package game

// ConsistencyAchievement is one tier of the long-run consistency ladder.
type ConsistencyAchievement struct {
	Threshold int
	ID        string
	Name      string
	Points    int
}

// ConsistencyAchievements lists the consistency-streak tiers in ascending
// order. A tier unlocks when the consistency streak lands exactly on its
// threshold and the achievement is not already on the profile.
var ConsistencyAchievements = []ConsistencyAchievement{
	{Threshold: 100, ID: "CONSISTENT_100", Name: "Century of Consistency", Points: 200},
	{Threshold: 500, ID: "CONSISTENT_500", Name: "Five Hundred Strong", Points: 1000},
	{Threshold: 1000, ID: "CONSISTENT_1000", Name: "Thousand Answer Titan", Points: 3000},
	{Threshold: 1500, ID: "CONSISTENT_1500", Name: "Unshakeable", Points: 4000},
	{Threshold: 2000, ID: "CONSISTENT_2000", Name: "Two Thousand Club", Points: 5000},
	{Threshold: 5000, ID: "CONSISTENT_5000", Name: "Marathon Mind", Points: 12000},
	{Threshold: 10000, ID: "CONSISTENT_10000", Name: "Ten Thousand Legend", Points: 25000},
	{Threshold: 20000, ID: "CONSISTENT_20000", Name: "Relentless", Points: 50000},
	{Threshold: 50000, ID: "CONSISTENT_50000", Name: "Immortal Streak", Points: 150000},
}

// congratsMessages are the minor streak celebrations shown every 10 correct
// answers in a row.
var congratsMessages = []string{
	"🎉 Wow! 10 in a row! You're on fire! 🔥",
	"🚀 10 perfect answers! Keep soaring!",
	"🌟 10/10! Genius mode activated!",
	"👏 10 streak! You're unstoppable!",
	"🥳 10 flawless answers! Celebrate!",
	"🦸 10 correct! Superhero brain!",
	"💡 10 in a row! Brainpower overload!",
	"🏆 10 streak! Champion!",
	"🎊 10/10! Party time!",
	"😎 10 correct! Cool and clever!",
}
