package nlu

var testCorpus = []Example{
	{"What's the weather in Dublin", "weather_query"},
	{"what is the weather like in London", "weather_query"},
	{"will it rain today", "weather_query"},
	{"is it going to rain in Paris", "weather_query"},
	{"tell me the weather forecast", "weather_query"},
	{"how hot is it outside", "weather_query"},
	{"what's the temperature in Berlin", "weather_query"},
	{"do I need an umbrella today", "weather_query"},
	{"weather report for Cork please", "weather_query"},
	{"is it sunny in Madrid", "weather_query"},
	{"how cold will it be tonight", "weather_query"},
	{"what is the temperature outside", "weather_query"},
	{"what time is it", "datetime_query"},
	{"tell me the time", "datetime_query"},
	{"what's the time in Tokyo", "datetime_query"},
	{"what time is it in New York", "datetime_query"},
	{"current time please", "datetime_query"},
	{"what hour is it now", "datetime_query"},
	{"can you tell me the time in Sydney", "datetime_query"},
	{"what's the clock say", "datetime_query"},
	{"time check", "datetime_query"},
	{"what is the local time", "datetime_query"},
	{"give me the time now", "datetime_query"},
	{"how late is it", "datetime_query"},
	{"hello there", "greet"},
	{"hi", "greet"},
	{"hey azura", "greet"},
	{"good morning", "greet"},
	{"hello azura how are you", "greet"},
	{"hey there friend", "greet"},
	{"hi how are you doing", "greet"},
	{"good evening azura", "greet"},
	{"hello", "greet"},
	{"hey", "greet"},
	{"morning azura", "greet"},
	{"hi there", "greet"},
}

func testOptions() TrainOptions {
	return TrainOptions{Epochs: 200, LearningRate: 0.5, BatchSize: 8, L2: 1e-5, TestSplit: 0.2, Seed: 10}
}
