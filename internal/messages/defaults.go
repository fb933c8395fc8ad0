package messages

import "github.com/nvandessel/pixelplant/internal/models"

// template is one row of the built-in message tables.
type template struct {
	text string
	mood models.Mood
	care models.CareLevel
}

// defaultTables holds the built-in messages per category, in selection order.
// The urgent category has no built-in messages.
var defaultTables = map[models.Category][]template{
	models.CategoryHydration: {
		{"Hey there! You need to hydrate! 💧", models.MoodCaring, models.CareGentle},
		{"Time for some water, {name}! Your body will thank you! 🌿", models.MoodCaring, models.CareGentle},
		{"How about a refreshing drink? Stay hydrated! ✨", models.MoodHappy, models.CareGentle},
		{"Your pixel plant thinks you could use some H2O! 💙", models.MoodHappy, models.CareGentle},
		{"Thirsty? I bet you are! Take a sip for me! 🥤", models.MoodCaring, models.CareGentle},
		{"I notice you haven't had water in a while. How about it? 💧", models.MoodCaring, models.CareEncouraging},
		{"Your caring companion reminds you: hydration is self-care! 🌸", models.MoodCaring, models.CareEncouraging},
		{"Let's keep that energy up with some refreshing water! 🌊", models.MoodCaring, models.CareEncouraging},
		{"Hey {name}, I'm getting a bit worried about your hydration. Please drink something! 💧", models.MoodConcerned, models.CareConcerned},
		{"It's been quite a while since your last drink. Your pixel plant is concerned! 🌿", models.MoodConcerned, models.CareConcerned},
		{"Please, {name} - you really need to drink some water now. I'm worried about you! 💧", models.MoodWorried, models.CareWorried},
	},
	models.CategoryMovement: {
		{"How about a snack? Take a walk! Stretch it out! 🚶‍♀️", models.MoodCaring, models.CareGentle},
		{"Time to get those muscles moving, {name}! Even a little stretch helps! 🤸‍♀️", models.MoodHappy, models.CareGentle},
		{"Your body is asking for some movement! Listen to it! 🌟", models.MoodCaring, models.CareGentle},
		{"Let's get the blood flowing! A quick walk does wonders! 🌈", models.MoodHappy, models.CareGentle},
		{"Movement is medicine! How about a little dance? 💃", models.MoodHappy, models.CareGentle},
		{"You've been sitting for a while. Your pixel plant suggests a movement break! 🌿", models.MoodCaring, models.CareEncouraging},
		{"I know you're focused, but your body needs some love too! Stretch time! 🧘‍♀️", models.MoodCaring, models.CareEncouraging},
		{"Even champions need movement breaks! You've got this! 💪", models.MoodCaring, models.CareEncouraging},
		{"I'm noticing you've been still for quite some time. Please move around a bit! 🚶‍♂️", models.MoodConcerned, models.CareConcerned},
		{"Your caring companion is getting concerned about your posture. Stand up for me? 🌸", models.MoodConcerned, models.CareConcerned},
	},
	models.CategoryPosture: {
		{"Time to adjust that posture! Stretch it out! 🧘", models.MoodCaring, models.CareGentle},
		{"Roll those shoulders back, {name}! Your spine will thank you! 💚", models.MoodCaring, models.CareGentle},
		{"Let's check that posture! Sit up tall like the amazing person you are! ✨", models.MoodHappy, models.CareGentle},
		{"Your pixel plant notices some slouching! Time for a posture reset! 🌿", models.MoodCaring, models.CareGentle},
		{"Gentle reminder: your future self will thank you for good posture now! 🙏", models.MoodCaring, models.CareEncouraging},
	},
	models.CategoryBreak: {
		{"You've been at it for a while, {name}. Time for a little break! ☕", models.MoodCaring, models.CareGentle},
		{"Step away for a few minutes! Your pixel plant will keep your seat warm! 🌿", models.MoodHappy, models.CareGentle},
		{"A short break now keeps your mind fresh for later! 🌤️", models.MoodCaring, models.CareEncouraging},
		{"Long session alert! Please rest your eyes and take a breather! 👀", models.MoodConcerned, models.CareConcerned},
	},
	models.CategoryEncouragement: {
		{"You're doing great! Keep up the amazing work! 🌟", models.MoodHappy, models.CareGentle},
		{"Aw, it's not so bad! Give yourself a hug! 🤗", models.MoodCaring, models.CareGentle},
		{"I believe in you, {name}! You've got this! 💪", models.MoodHappy, models.CareEncouraging},
		{"Every small step counts! You're making progress! 🌱", models.MoodCaring, models.CareGentle},
		{"Your pixel plant is proud of your efforts! Keep going! 🌿✨", models.MoodHappy, models.CareGentle},
		{"Remember: you're braver than you believe and stronger than you seem! 🦋", models.MoodCaring, models.CareEncouraging},
		{"Tough moments don't last, but resilient people like you do! 🌈", models.MoodCaring, models.CareEncouraging},
	},
	models.CategoryCelebration: {
		{"Wonderful! You took care of yourself! I'm so proud! 🎉", models.MoodCelebrating, models.CareGentle},
		{"Yes! That's what I love to see! Great self-care! ✨", models.MoodCelebrating, models.CareGentle},
		{"You listened to your body! That's what caring for yourself looks like! 💚", models.MoodHappy, models.CareGentle},
		{"Your pixel plant is doing a happy dance! Well done, {name}! 🌿💃", models.MoodCelebrating, models.CareGentle},
		{"That's the spirit! Taking care of yourself is beautiful! 🌸", models.MoodHappy, models.CareGentle},
	},
	models.CategoryConcern: {
		{"I'm getting a bit worried about you. Everything okay? 💙", models.MoodConcerned, models.CareConcerned},
		{"Your pixel plant is concerned. You matter, and your wellbeing matters! 🌿", models.MoodConcerned, models.CareConcerned},
		{"I care about you, {name}. Let's take care of your needs together! 💚", models.MoodConcerned, models.CareConcerned},
		{"I'm really worried now. Please take a moment for yourself! 🌸", models.MoodWorried, models.CareWorried},
		{"This is your caring companion speaking: you need attention right now! 💛", models.MoodWorried, models.CareWorried},
	},
	models.CategoryGreeting: {
		{"Hello there! Your caring companion is here! 🌿✨", models.MoodHappy, models.CareGentle},
		{"Good to see you, {name}! Ready to take great care of yourself today? 💚", models.MoodHappy, models.CareGentle},
		{"Your pixel plant missed you! Let's have a wonderful day together! 🌸", models.MoodHappy, models.CareGentle},
		{"Welcome back! I'm here to help you stay healthy and happy! 🌟", models.MoodHappy, models.CareGentle},
	},
	models.CategoryGoodnight: {
		{"Good night, {name}! You did well today. Rest up! 🌙", models.MoodSleeping, models.CareGentle},
		{"Time for your pixel plant to close its leaves. Sweet dreams! 🌿💤", models.MoodSleeping, models.CareGentle},
		{"Sleep tight! Tomorrow we grow together again! ✨", models.MoodSleeping, models.CareGentle},
	},
}
